package queryset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/ast"
)

// ParseError reports a syntax error in the text form of a query.
type ParseError struct {
	Row     int
	Col     int
	Message string
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("parse error at %d:%d: %s", e.Row, e.Col, e.Message)
	}
	return "parse error: " + e.Message
}

// newParseError keeps the first error the parser reports.
func newParseError(err error) *ParseError {
	var errs ast.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		pe := &ParseError{Message: errs[0].Message}
		if loc := errs[0].Location; loc != nil {
			pe.Row, pe.Col = loc.Row, loc.Col
		}
		return pe
	}
	return &ParseError{Message: err.Error()}
}

// ParseQuery parses one query from its text form: expressions separated by
// ';' or newlines. Wildcards become fresh generated variables.
//
//	data.q[x]; x.b = "foo"; abs(x.a) > 1
func ParseQuery(src string) (Query, error) {
	if strings.TrimSpace(src) == "" {
		return Query{}, nil
	}
	body, err := ast.ParseBody(src)
	if err != nil {
		return nil, newParseError(err)
	}
	return FromBody(body)
}

// ParseQuerySet parses one query per element.
func ParseQuerySet(srcs []string) (QuerySet, error) {
	qs := make(QuerySet, 0, len(srcs))
	for i, src := range srcs {
		q, err := ParseQuery(src)
		if err != nil {
			return nil, fmt.Errorf("query[%d]: %w", i, err)
		}
		qs = append(qs, q)
	}
	return qs, nil
}

// ParseTerm parses a single term.
func ParseTerm(src string) (Term, error) {
	t, err := ast.ParseTerm(src)
	if err != nil {
		return nil, newParseError(err)
	}
	return FromTerm(t)
}

// MustParseQuerySet is like ParseQuerySet but panics on error.
// Use only in tests or for inputs known to be valid.
func MustParseQuerySet(srcs ...string) QuerySet {
	qs, err := ParseQuerySet(srcs)
	if err != nil {
		panic(err)
	}
	return qs
}
