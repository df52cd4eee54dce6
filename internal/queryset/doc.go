// Package queryset provides the typed model of a partially evaluated
// policy result.
//
// A QuerySet is the residual the policy engine returns after evaluating a
// query against known input while treating some data roots as unknown:
//
//	QuerySet = Query OR Query OR ...
//	Query    = Expr AND Expr AND ...
//	Expr     = op(operand, operand, ...) | term
//
// An empty QuerySet means the query is never defined. A QuerySet holding an
// empty Query means the query is always defined.
//
// SEALED INTERFACES:
//
// Term is a sealed interface using the marker method pattern. Only types in
// this package implement it, so consumers can switch exhaustively:
//
//	switch t := term.(type) {
//	case Scalar:
//	case Var:
//	case *Ref:
//	case *Call:
//	case Composite:
//	}
//
// Ref and Call are pointers so the reference preprocessor can rewrite refs
// in place.
//
// WIRE FORM:
//
// Decode reads the engine's JSON encoding of queries (the "queries" member
// of a compile response). Parse reads the same model from the text form the
// engine prints, e.g.
//
//	eq(data.q[x].b, "foo"); gt(abs(data.q[x].a), 1)
//
// Both go through the engine's own ast package; FromBodies converts its
// result, so in-process partial evaluation feeds the same model.
package queryset
