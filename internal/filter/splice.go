package filter

import (
	"strings"

	"github.com/roach88/rowfilter/internal/sqlast"
)

// Splice builds the statement text for a decision.
//
// Each clause yields one statement
//
//	SELECT <selectClause> FROM <fromClause> <clause> [AND (<extraWhere>)]
//
// and the statements are combined with UNION. A decision without clauses
// yields the bare statement, restricted by extraWhere if given.
//
// Splice does not apply the allow/deny policy: callers must check
// d.Defined before using a decision without clauses.
func Splice(selectClause, fromClause, extraWhere string, d Decision, opts sqlast.RenderOptions) string {
	base := "SELECT " + selectClause + " FROM " + fromClause

	if d.SQL == nil || len(d.SQL.Clauses) == 0 {
		if extraWhere != "" {
			return base + " WHERE " + extraWhere
		}
		return base
	}

	stmts := make([]string, len(d.SQL.Clauses))
	for i, clause := range d.SQL.Clauses {
		stmt := base + " " + sqlast.Render(clause, opts)
		if extraWhere != "" {
			stmt += " AND (" + extraWhere + ")"
		}
		stmts[i] = stmt
	}
	return strings.Join(stmts, " UNION ")
}
