package sqlast

import (
	"fmt"

	"github.com/roach88/rowfilter/internal/ir"
)

// Node is any SQL AST node.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	writeSQL(r *renderer)
}

// Clause is a top-level member of a Union: Where or InnerJoin.
type Clause interface {
	Node
	clauseNode()
}

// Operand is one side of a Relation or an argument of a Call.
type Operand interface {
	Node
	operandNode()
}

// Union is the ordered list of clauses a decision applies. Each clause is
// spliced into its own SELECT and the results are combined with UNION.
type Union struct {
	Clauses []Clause
}

// Where restricts the base table with a disjunction of conjunctions.
type Where struct {
	Expr Disjunction
}

func (Where) clauseNode() {}

// InnerJoin joins Tables onto the base table with Expr as the predicate.
type InnerJoin struct {
	Tables []string
	Expr   Conjunction
}

func (InnerJoin) clauseNode() {}

// Disjunction ORs its conjunctions.
type Disjunction struct {
	Conjunctions []Conjunction
}

// Conjunction ANDs its relations. An empty Conjunction is always true.
type Conjunction struct {
	Relations []Relation
}

// Relation compares two operands.
type Relation struct {
	Op  RelationOp
	LHS Operand
	RHS Operand
}

// RelationOp is an SQL comparison operator token, e.g. "=" or "<=".
type RelationOp string

// Column references table.name, or a bare name when Table is empty.
type Column struct {
	Table string
	Name  string
}

func (Column) operandNode() {}

// Constant is a literal value. Literal holds the canonical JSON encoding;
// use NewConstant to build one.
type Constant struct {
	Literal string
}

func (Constant) operandNode() {}

// NewConstant encodes a scalar value as a constant.
func NewConstant(v ir.IRValue) (Constant, error) {
	lit, err := ir.MarshalLiteral(v)
	if err != nil {
		return Constant{}, fmt.Errorf("constant: %w", err)
	}
	return Constant{Literal: lit}, nil
}

// Call is a function applied to operands, e.g. abs(q.a).
type Call struct {
	Name     string
	Operands []Operand
}

func (Call) operandNode() {}
