package compiler

import (
	"fmt"

	"github.com/roach88/rowfilter/internal/ir"
	"github.com/roach88/rowfilter/internal/queryset"
)

// wildcard is the anonymous iterator. Every occurrence is a distinct
// variable, so it is never recorded as an alias.
const wildcard = "_"

// refContext is the per-query state of Preprocess. A fresh context is
// created for every query so aliases never leak between disjuncts.
type refContext struct {
	// aliases maps a row iterator to the prefix it stands for,
	// e.g. x -> data.q once data.q[x] has been seen.
	aliases map[string][]queryset.Term

	// tables maps a table name to the iterator bound to it.
	tables map[string]string
}

func newRefContext() *refContext {
	return &refContext{
		aliases: make(map[string][]queryset.Term),
		tables:  make(map[string]string),
	}
}

// Preprocess rewrites the references of qs in place so that every table
// reference is in direct data.<table>.<column> form.
//
//	data.q[x].b        => data.q.b
//	data.q[x]; x.c     => data.q; data.q.c
//	data.q[x].t[y].c   => data.q.t[y].c
//
// Row identifiers must be variables, and a table may be bound to only one
// iterator per query.
func Preprocess(qs queryset.QuerySet) error {
	for _, q := range qs {
		ctx := newRefContext()
		for _, e := range q {
			if err := ctx.expr(e); err != nil {
				return withExpr(err, e)
			}
		}
	}
	return nil
}

// expr visits operands only; the operator of a call is never a table
// reference.
func (c *refContext) expr(e *queryset.Expr) error {
	terms := e.Terms
	if e.IsCall() {
		terms = e.Operands()
	}
	for _, t := range terms {
		if err := c.term(t); err != nil {
			return err
		}
	}
	return nil
}

func (c *refContext) term(t queryset.Term) error {
	switch t := t.(type) {
	case *queryset.Call:
		for _, o := range t.Operands {
			if err := c.term(o); err != nil {
				return err
			}
		}
		return nil
	case *queryset.Ref:
		return c.ref(t)
	case queryset.Scalar, queryset.Var, queryset.Composite:
		return nil
	default:
		return newError(ErrCodeUnsupportedTerm, "invalid term: type not supported: %s", termKind(t))
	}
}

func (c *refContext) ref(r *queryset.Ref) error {
	head := r.Head()
	if prefix, ok := c.aliases[head]; ok {
		r.Terms = concatTerms(prefix, r.Terms[1:])
		return nil
	}

	if r.Len() < 3 {
		return newError(ErrCodeReferenceShape, "invalid reference: expected data.<table>[<row>]: %s", r)
	}

	row, ok := r.Terms[2].(queryset.Var)
	if !ok {
		return newError(ErrCodeReferenceShape,
			"invalid reference: row identifier type not supported: %s", termKind(r.Terms[2]))
	}

	table, ok := r.Segment(1)
	if !ok {
		return newError(ErrCodeReferenceShape, "invalid reference: table name must be a string: %s", r)
	}

	prefix := concatTerms(r.Terms[:2], nil)

	if bound, ok := c.tables[table]; ok && (bound != string(row) || row == wildcard) {
		return newError(ErrCodeSelfJoinUnsupported, "invalid reference: self-joins not supported: %s", table)
	}
	c.tables[table] = string(row)
	if row != wildcard {
		c.aliases[string(row)] = prefix
	}

	r.Terms = concatTerms(prefix, r.Terms[3:])
	return nil
}

func concatTerms(a, b []queryset.Term) []queryset.Term {
	out := make([]queryset.Term, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// termKind names a term's variant for error messages.
func termKind(t queryset.Term) string {
	switch t := t.(type) {
	case queryset.Scalar:
		switch t.Value.(type) {
		case ir.IRString:
			return "string"
		case ir.IRNumber:
			return "number"
		case ir.IRBool:
			return "boolean"
		default:
			return "null"
		}
	case queryset.Var:
		return "var"
	case *queryset.Ref:
		return "ref"
	case *queryset.Call:
		return "call"
	case queryset.Composite:
		return t.Kind
	default:
		return fmt.Sprintf("%T", t)
	}
}
