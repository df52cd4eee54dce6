package sqlast

import (
	"strings"
)

// DefaultQuote delimits string constants unless RenderOptions says otherwise.
const DefaultQuote = `"`

// RenderOptions configures rendering.
type RenderOptions struct {
	// Quote replaces the delimiters of string constants. Empty means
	// DefaultQuote.
	//
	// Only the delimiters change; the interior keeps its JSON escaping.
	// A value containing the quote character itself (e.g. it's with
	// Quote "'") is emitted unescaped, so rendered text is not safe
	// against SQL injection when policy values come from untrusted data.
	Quote string
}

func (o RenderOptions) quote() string {
	if o.Quote == "" {
		return DefaultQuote
	}
	return o.Quote
}

// Render returns the SQL text of n.
// Render is pure: the same node and options always yield the same text.
func Render(n Node, opts RenderOptions) string {
	r := &renderer{quote: opts.quote()}
	n.writeSQL(r)
	return r.b.String()
}

// RenderClauses renders each clause of u separately, in order.
func RenderClauses(u *Union, opts RenderOptions) []string {
	if u == nil {
		return nil
	}
	out := make([]string, len(u.Clauses))
	for i, c := range u.Clauses {
		out[i] = Render(c, opts)
	}
	return out
}

type renderer struct {
	b     strings.Builder
	quote string
}

// writeSQL renders the clauses separated by newlines. Splicing a Union into
// statements is the filter package's job; this form is for display.
func (u Union) writeSQL(r *renderer) {
	for i, c := range u.Clauses {
		if i > 0 {
			r.b.WriteByte('\n')
		}
		c.writeSQL(r)
	}
}

func (w Where) writeSQL(r *renderer) {
	r.b.WriteString("WHERE ")
	w.Expr.writeSQL(r)
}

func (j InnerJoin) writeSQL(r *renderer) {
	for i, t := range j.Tables {
		if i > 0 {
			r.b.WriteByte(' ')
		}
		r.b.WriteString("INNER JOIN ")
		r.b.WriteString(t)
	}
	r.b.WriteString(" ON ")
	j.Expr.writeSQL(r)
}

func (d Disjunction) writeSQL(r *renderer) {
	r.b.WriteByte('(')
	for i, c := range d.Conjunctions {
		if i > 0 {
			r.b.WriteString(" OR ")
		}
		c.writeSQL(r)
	}
	r.b.WriteByte(')')
}

func (c Conjunction) writeSQL(r *renderer) {
	if len(c.Relations) == 0 {
		r.b.WriteByte('1')
		return
	}
	r.b.WriteByte('(')
	for i, rel := range c.Relations {
		if i > 0 {
			r.b.WriteString(" AND ")
		}
		rel.writeSQL(r)
	}
	r.b.WriteByte(')')
}

func (rel Relation) writeSQL(r *renderer) {
	rel.LHS.writeSQL(r)
	r.b.WriteByte(' ')
	rel.Op.writeSQL(r)
	r.b.WriteByte(' ')
	rel.RHS.writeSQL(r)
}

func (op RelationOp) writeSQL(r *renderer) {
	r.b.WriteString(string(op))
}

func (c Column) writeSQL(r *renderer) {
	if c.Table != "" {
		r.b.WriteString(c.Table)
		r.b.WriteByte('.')
	}
	r.b.WriteString(c.Name)
}

// writeSQL replaces only the two delimiters of a string literal; interior
// escaping is left as encoded.
func (c Constant) writeSQL(r *renderer) {
	lit := c.Literal
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		r.b.WriteString(r.quote)
		r.b.WriteString(lit[1 : len(lit)-1])
		r.b.WriteString(r.quote)
		return
	}
	r.b.WriteString(lit)
}

func (c Call) writeSQL(r *renderer) {
	r.b.WriteString(c.Name)
	r.b.WriteByte('(')
	for i, o := range c.Operands {
		if i > 0 {
			r.b.WriteString(", ")
		}
		o.writeSQL(r)
	}
	r.b.WriteByte(')')
}
