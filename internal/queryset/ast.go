package queryset

import (
	"fmt"

	"github.com/open-policy-agent/opa/ast"
)

// FromBodies converts the policy engine's partial-evaluation queries.
// A nil or empty slice is a never-defined query set.
func FromBodies(bodies []ast.Body) (QuerySet, error) {
	qs := make(QuerySet, 0, len(bodies))
	for i, body := range bodies {
		q, err := FromBody(body)
		if err != nil {
			return nil, fmt.Errorf("query[%d]: %w", i, err)
		}
		qs = append(qs, q)
	}
	return qs, nil
}

// FromBody converts one query body.
func FromBody(body ast.Body) (Query, error) {
	q := make(Query, 0, len(body))
	for i, e := range body {
		expr, err := FromExpr(e)
		if err != nil {
			return nil, fmt.Errorf("expr[%d]: %w", i, err)
		}
		q = append(q, expr)
	}
	return q, nil
}

// FromExpr converts one expression. Expressions with `with` modifiers,
// `some` declarations and `every` are rejected.
func FromExpr(e *ast.Expr) (*Expr, error) {
	if e == nil {
		return nil, fmt.Errorf("missing expression")
	}
	if len(e.With) > 0 {
		return nil, fmt.Errorf("with modifiers not supported: %v", e)
	}

	out := &Expr{Index: e.Index, Negated: e.Negated}
	switch terms := e.Terms.(type) {
	case *ast.Term:
		t, err := FromTerm(terms)
		if err != nil {
			return nil, err
		}
		out.Terms = []Term{t}
	case []*ast.Term:
		if len(terms) == 0 {
			return nil, fmt.Errorf("missing terms")
		}
		ts, err := fromTerms(terms)
		if err != nil {
			return nil, err
		}
		if _, ok := ts[0].(*Ref); !ok {
			return nil, fmt.Errorf("operator must be a ref, got %s", ts[0])
		}
		out.Terms = ts
	default:
		return nil, fmt.Errorf("expression type not supported: %T", e.Terms)
	}
	return out, nil
}

// FromTerm converts one term. Arrays, objects, sets and comprehensions
// become Composite.
func FromTerm(t *ast.Term) (Term, error) {
	if t == nil {
		return nil, fmt.Errorf("missing term")
	}

	switch v := t.Value.(type) {
	case ast.Null:
		return NullTerm(), nil
	case ast.Boolean:
		return BoolTerm(bool(v)), nil
	case ast.Number:
		return NumberTerm(string(v)), nil
	case ast.String:
		return StringTerm(string(v)), nil
	case ast.Var:
		return Var(string(v)), nil

	case ast.Ref:
		if len(v) == 0 {
			return nil, fmt.Errorf("ref: empty")
		}
		terms, err := fromTerms(v)
		if err != nil {
			return nil, fmt.Errorf("ref: %w", err)
		}
		return &Ref{Terms: terms}, nil

	case ast.Call:
		if len(v) == 0 {
			return nil, fmt.Errorf("call: missing operator")
		}
		terms, err := fromTerms(v)
		if err != nil {
			return nil, fmt.Errorf("call: %w", err)
		}
		op, ok := terms[0].(*Ref)
		if !ok {
			return nil, fmt.Errorf("call: operator must be a ref, got %s", terms[0])
		}
		return &Call{Operator: op, Operands: terms[1:]}, nil

	default:
		return Composite{Kind: ast.TypeName(v), Text: v.String()}, nil
	}
}

func fromTerms(ts []*ast.Term) ([]Term, error) {
	out := make([]Term, 0, len(ts))
	for i, t := range ts {
		term, err := FromTerm(t)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, term)
	}
	return out, nil
}
