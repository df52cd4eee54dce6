package queryset

import (
	"regexp"
	"strings"

	"github.com/roach88/rowfilter/internal/ir"
)

// Term is a value appearing in an expression.
//
// This is a sealed interface - only types in this package implement it.
//
// Term types:
//   - Scalar: string, number, boolean or null literal
//   - Var: a variable, e.g. a row iterator
//   - *Ref: a reference path, e.g. data.q[x].b
//   - *Call: a function call, e.g. abs(data.q[x].a)
//   - Composite: arrays, objects, sets and comprehensions (never translatable)
type Term interface {
	termNode() // Marker method - seals interface to this package
	String() string
}

// Scalar is a literal value.
type Scalar struct {
	Value ir.IRValue
}

func (Scalar) termNode() {}

func (s Scalar) String() string {
	lit, err := ir.MarshalLiteral(s.Value)
	if err != nil {
		return "<invalid>"
	}
	return lit
}

// Var is a variable term.
type Var string

func (Var) termNode() {}

func (v Var) String() string { return string(v) }

// Ref is a reference: a head variable followed by path segments.
//
// The canonical table reference is data.<table>[<row>].<column>, i.e.
//
//	Terms[0] = Var("data")
//	Terms[1] = Scalar("table")
//	Terms[2] = Var("row")
//	Terms[3] = Scalar("column")
type Ref struct {
	Terms []Term
}

func (*Ref) termNode() {}

// NewRef creates a Ref from its terms.
func NewRef(terms ...Term) *Ref {
	return &Ref{Terms: terms}
}

// Len returns the number of segments.
func (r *Ref) Len() int { return len(r.Terms) }

// Head returns the name of the head variable, or "" if the head is not a Var.
func (r *Ref) Head() string {
	if len(r.Terms) == 0 {
		return ""
	}
	v, ok := r.Terms[0].(Var)
	if !ok {
		return ""
	}
	return string(v)
}

// Segment returns the string value of segment i.
// ok is false if i is out of range or the segment is not a string scalar.
func (r *Ref) Segment(i int) (string, bool) {
	if i < 0 || i >= len(r.Terms) {
		return "", false
	}
	s, ok := r.Terms[i].(Scalar)
	if !ok {
		return "", false
	}
	str, ok := s.Value.(ir.IRString)
	return string(str), ok
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (r *Ref) String() string {
	if len(r.Terms) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(r.Terms[0].String())
	for _, t := range r.Terms[1:] {
		if s, ok := t.(Scalar); ok {
			if str, ok := s.Value.(ir.IRString); ok && identifier.MatchString(string(str)) {
				b.WriteByte('.')
				b.WriteString(string(str))
				continue
			}
		}
		b.WriteByte('[')
		b.WriteString(t.String())
		b.WriteByte(']')
	}
	return b.String()
}

// Call is a function call term.
type Call struct {
	Operator *Ref
	Operands []Term
}

func (*Call) termNode() {}

// NewCall creates a Call of the named operator.
func NewCall(op string, operands ...Term) *Call {
	return &Call{Operator: operatorRef(op), Operands: operands}
}

// Name returns the dotted operator name, e.g. "abs" or "internal.member_2".
func (c *Call) Name() string {
	return operatorName(c.Operator)
}

func (c *Call) String() string {
	return c.Name() + "(" + joinTerms(c.Operands) + ")"
}

// Composite stands for array, object, set and comprehension terms.
// Kind holds the wire type name.
type Composite struct {
	Kind string
	Text string
}

func (Composite) termNode() {}

func (c Composite) String() string {
	if c.Text != "" {
		return c.Text
	}
	return "<" + c.Kind + ">"
}

// Expr is one expression of a query.
//
// With one term the expression is a bare reference (an existence check).
// With more terms it is a call: Terms[0] is the operator ref and the rest
// are operands.
type Expr struct {
	Index   int
	Negated bool
	Terms   []Term
}

// NewExpr creates a call expression of the named operator.
func NewExpr(op string, operands ...Term) *Expr {
	terms := append([]Term{operatorRef(op)}, operands...)
	return &Expr{Terms: terms}
}

// NewTermExpr creates a bare expression.
func NewTermExpr(t Term) *Expr {
	return &Expr{Terms: []Term{t}}
}

// IsCall reports whether the expression is a call.
func (e *Expr) IsCall() bool {
	return len(e.Terms) > 1
}

// Operator returns the dotted operator name of a call expression, or "".
func (e *Expr) Operator() string {
	if !e.IsCall() {
		return ""
	}
	ref, ok := e.Terms[0].(*Ref)
	if !ok {
		return ""
	}
	return operatorName(ref)
}

// Operands returns the operands of a call expression.
func (e *Expr) Operands() []Term {
	if !e.IsCall() {
		return nil
	}
	return e.Terms[1:]
}

func (e *Expr) String() string {
	var s string
	if e.IsCall() {
		s = e.Operator() + "(" + joinTerms(e.Operands()) + ")"
	} else if len(e.Terms) == 1 {
		s = e.Terms[0].String()
	}
	if e.Negated {
		return "not " + s
	}
	return s
}

// Query is a conjunction of expressions. An empty Query is always true.
type Query []*Expr

func (q Query) String() string {
	parts := make([]string, len(q))
	for i, e := range q {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

// QuerySet is a disjunction of queries.
type QuerySet []Query

// Undefined reports whether the set has no disjuncts: the policy query can
// never be satisfied.
func (qs QuerySet) Undefined() bool {
	return len(qs) == 0
}

// Unconditional reports whether any disjunct is empty: the policy query is
// satisfied regardless of the unknown data.
func (qs QuerySet) Unconditional() bool {
	for _, q := range qs {
		if len(q) == 0 {
			return true
		}
	}
	return false
}

// Strings returns one line per disjunct.
func (qs QuerySet) Strings() []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.String()
	}
	return out
}

// operatorRef builds the ref for a dotted operator name.
func operatorRef(op string) *Ref {
	parts := strings.Split(op, ".")
	terms := make([]Term, len(parts))
	terms[0] = Var(parts[0])
	for i, p := range parts[1:] {
		terms[i+1] = Scalar{Value: ir.IRString(p)}
	}
	return &Ref{Terms: terms}
}

func operatorName(r *Ref) string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Terms))
	for _, t := range r.Terms {
		switch v := t.(type) {
		case Var:
			parts = append(parts, string(v))
		case Scalar:
			if s, ok := v.Value.(ir.IRString); ok {
				parts = append(parts, string(s))
				continue
			}
			parts = append(parts, v.String())
		default:
			parts = append(parts, t.String())
		}
	}
	return strings.Join(parts, ".")
}

func joinTerms(terms []Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
