package queryset

import (
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/ast"
)

// Decode parses the JSON encoding of a query set, as found in the result
// of the engine's compile API: an array of queries, each an array of
// expressions.
func Decode(data []byte) (QuerySet, error) {
	var bodies []ast.Body
	if err := json.Unmarshal(data, &bodies); err != nil {
		return nil, fmt.Errorf("decode query set: %w", err)
	}
	return FromBodies(bodies)
}

// DecodeTerm parses the JSON encoding of one term.
func DecodeTerm(data []byte) (Term, error) {
	var t ast.Term
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode term: %w", err)
	}
	return FromTerm(&t)
}
