package compiler

import (
	"github.com/roach88/rowfilter/internal/queryset"
	"github.com/roach88/rowfilter/internal/sqlast"
)

// relationOperators maps policy relational operators to SQL.
var relationOperators = map[string]sqlast.RelationOp{
	"eq":    "=",
	"equal": "=",
	"neq":   "!=",
	"lt":    "<",
	"gt":    ">",
	"lte":   "<=",
	"gte":   ">=",
}

// callOperators is the allow-list of functions that may appear inside a
// relation.
var callOperators = map[string]string{
	"abs": "abs",
}

// Translate converts a preprocessed query set into SQL clauses.
//
// Queries that reference at most one table contribute a conjunction to a
// single WHERE clause. Each query that references more than one table
// becomes an INNER JOIN of its tables other than fromTable. The WHERE clause,
// if any, comes first, followed by the joins in query order.
//
// Translation stops at the first error.
func Translate(qs queryset.QuerySet, fromTable string) (*sqlast.Union, error) {
	t := &translator{from: fromTable}
	for _, q := range qs {
		if err := t.query(q); err != nil {
			return nil, err
		}
	}
	return t.union(), nil
}

type translator struct {
	from         string
	conjunctions []sqlast.Conjunction
	joins        []sqlast.InnerJoin
}

func (t *translator) union() *sqlast.Union {
	u := &sqlast.Union{}
	if len(t.conjunctions) > 0 {
		u.Clauses = append(u.Clauses, sqlast.Where{
			Expr: sqlast.Disjunction{Conjunctions: t.conjunctions},
		})
	}
	for _, j := range t.joins {
		u.Clauses = append(u.Clauses, j)
	}
	return u
}

func (t *translator) query(q queryset.Query) error {
	tables := &tableSet{}
	var relations []sqlast.Relation

	for _, e := range q {
		rel, ok, err := t.expr(e, tables)
		if err != nil {
			return withExpr(err, e)
		}
		if ok {
			relations = append(relations, rel)
		}
	}

	conj := sqlast.Conjunction{Relations: relations}
	if tables.len() > 1 {
		t.joins = append(t.joins, sqlast.InnerJoin{
			Tables: tables.without(t.from),
			Expr:   conj,
		})
		return nil
	}
	t.conjunctions = append(t.conjunctions, conj)
	return nil
}

// expr translates one expression. ok is false for existence checks, which
// emit no relation.
func (t *translator) expr(e *queryset.Expr, tables *tableSet) (sqlast.Relation, bool, error) {
	if e.Negated {
		return sqlast.Relation{}, false, newError(ErrCodeUnsupportedOperator,
			"invalid expression: negation not supported")
	}
	if !e.IsCall() {
		return sqlast.Relation{}, false, nil
	}

	operands := e.Operands()
	if len(operands) != 2 {
		return sqlast.Relation{}, false, newError(ErrCodeInvalidArity,
			"invalid expression: %s takes 2 arguments, got %d", e.Operator(), len(operands))
	}

	op, ok := relationOperators[e.Operator()]
	if !ok {
		return sqlast.Relation{}, false, newError(ErrCodeUnsupportedOperator,
			"invalid expression: operator not supported: %s", e.Operator())
	}

	lhs, err := t.operand(operands[0], tables)
	if err != nil {
		return sqlast.Relation{}, false, err
	}
	rhs, err := t.operand(operands[1], tables)
	if err != nil {
		return sqlast.Relation{}, false, err
	}
	return sqlast.Relation{Op: op, LHS: lhs, RHS: rhs}, true, nil
}

func (t *translator) operand(term queryset.Term, tables *tableSet) (sqlast.Operand, error) {
	switch term := term.(type) {
	case queryset.Scalar:
		c, err := sqlast.NewConstant(term.Value)
		if err != nil {
			return nil, newError(ErrCodeUnsupportedTerm, "invalid term: %v", err)
		}
		return c, nil

	case *queryset.Ref:
		return t.column(term, tables)

	case *queryset.Call:
		name, ok := callOperators[term.Name()]
		if !ok {
			return nil, newError(ErrCodeUnsupportedOperator,
				"invalid call: operator not supported: %s", term.Name())
		}
		args := make([]sqlast.Operand, 0, len(term.Operands))
		for _, o := range term.Operands {
			arg, err := t.operand(o, tables)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return sqlast.Call{Name: name, Operands: args}, nil

	default:
		return nil, newError(ErrCodeUnsupportedTerm,
			"invalid term: type not supported: %s", termKind(term))
	}
}

// column translates data.<table>.<column> and the nested
// data.<table>.<alias>[<row>].<column> form. Only the former records its
// table; the nested form is qualified by its alias.
func (t *translator) column(r *queryset.Ref, tables *tableSet) (sqlast.Operand, error) {
	switch r.Len() {
	case 3:
		table, ok1 := r.Segment(1)
		name, ok2 := r.Segment(2)
		if ok1 && ok2 {
			tables.add(table)
			return sqlast.Column{Table: table, Name: name}, nil
		}
	case 5:
		alias, ok1 := r.Segment(2)
		name, ok2 := r.Segment(4)
		if ok1 && ok2 {
			return sqlast.Column{Table: alias, Name: name}, nil
		}
	}
	return nil, newError(ErrCodeUnsupportedTerm, "invalid term: reference not supported: %s", r)
}

// tableSet is an insertion-ordered set of table names.
type tableSet struct {
	names []string
}

func (s *tableSet) add(name string) {
	for _, n := range s.names {
		if n == name {
			return
		}
	}
	s.names = append(s.names, name)
}

func (s *tableSet) len() int { return len(s.names) }

func (s *tableSet) without(name string) []string {
	out := make([]string, 0, len(s.names))
	for _, n := range s.names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
