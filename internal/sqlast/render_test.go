package sqlast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowfilter/internal/ir"
)

func constant(t *testing.T, v ir.IRValue) Constant {
	t.Helper()
	c, err := NewConstant(v)
	require.NoError(t, err)
	return c
}

func eqRel(lhs, rhs Operand) Relation {
	return Relation{Op: "=", LHS: lhs, RHS: rhs}
}

func TestRender_Where(t *testing.T) {
	w := Where{Expr: Disjunction{Conjunctions: []Conjunction{
		{Relations: []Relation{eqRel(constant(t, ir.IRString("foo")), Column{Table: "q", Name: "b"})}},
	}}}

	assert.Equal(t, `WHERE (("foo" = q.b))`, Render(w, RenderOptions{}))
}

func TestRender_ConjunctionOrder(t *testing.T) {
	c := Conjunction{Relations: []Relation{
		eqRel(constant(t, ir.IRString("foo")), Column{Table: "q", Name: "b"}),
		eqRel(constant(t, ir.IRString("bar")), Column{Table: "q", Name: "c"}),
	}}

	assert.Equal(t, `("foo" = q.b AND "bar" = q.c)`, Render(c, RenderOptions{}))
}

func TestRender_Disjunction(t *testing.T) {
	d := Disjunction{Conjunctions: []Conjunction{
		{Relations: []Relation{eqRel(constant(t, ir.IRString("foo")), Column{Table: "q", Name: "b"})}},
		{Relations: []Relation{eqRel(constant(t, ir.IRString("bar")), Column{Table: "q", Name: "c"})}},
	}}

	assert.Equal(t, `(("foo" = q.b) OR ("bar" = q.c))`, Render(d, RenderOptions{}))
}

func TestRender_EmptyConjunctionIsTautology(t *testing.T) {
	assert.Equal(t, "1", Render(Conjunction{}, RenderOptions{}))

	w := Where{Expr: Disjunction{Conjunctions: []Conjunction{{}}}}
	assert.Equal(t, "WHERE (1)", Render(w, RenderOptions{}))
}

func TestRender_InnerJoin(t *testing.T) {
	j := InnerJoin{
		Tables: []string{"r", "s"},
		Expr: Conjunction{Relations: []Relation{
			eqRel(Column{Table: "q", Name: "a"}, Column{Table: "r", Name: "b"}),
			eqRel(Column{Table: "q", Name: "c"}, Column{Table: "s", Name: "c"}),
		}},
	}

	assert.Equal(t, "INNER JOIN r INNER JOIN s ON (q.a = r.b AND q.c = s.c)", Render(j, RenderOptions{}))
}

func TestRender_Operands(t *testing.T) {
	tests := []struct {
		name     string
		node     Node
		expected string
	}{
		{"qualified column", Column{Table: "q", Name: "a"}, "q.a"},
		{"bare column", Column{Name: "a"}, "a"},
		{"number", constant(t, ir.NewIRInt(1)), "1"},
		{"bool", constant(t, ir.IRBool(true)), "true"},
		{"null", constant(t, ir.IRNull{}), "null"},
		{"call", Call{Name: "abs", Operands: []Operand{Column{Table: "q", Name: "a"}}}, "abs(q.a)"},
		{"call two args", Call{Name: "f", Operands: []Operand{Column{Name: "a"}, constant(t, ir.NewIRInt(2))}}, "f(a, 2)"},
		{"call no args", Call{Name: "now"}, "now()"},
		{"relation op", RelationOp("<="), "<="},
		{"relation", Relation{Op: ">", LHS: Call{Name: "abs", Operands: []Operand{Column{Table: "q", Name: "a"}}}, RHS: constant(t, ir.NewIRInt(1))}, "abs(q.a) > 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.node, RenderOptions{}))
		})
	}
}

func TestRender_QuoteSubstitution(t *testing.T) {
	tests := []struct {
		name  string
		value ir.IRValue
	}{
		{"plain", ir.IRString("foo")},
		{"interior quote", ir.IRString(`say "hi"`)},
		{"interior single quote", ir.IRString("it's")},
		{"backslash", ir.IRString(`a\b`)},
		{"empty", ir.IRString("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := constant(t, tt.value)
			double := Render(c, RenderOptions{})
			single := Render(c, RenderOptions{Quote: "'"})

			require.Equal(t, len(double), len(single))
			assert.Equal(t, byte('"'), double[0])
			assert.Equal(t, byte('\''), single[0])
			assert.Equal(t, byte('\''), single[len(single)-1])
			assert.Equal(t, double[1:len(double)-1], single[1:len(single)-1],
				"interior content must be unchanged")
		})
	}
}

func TestRender_DecomposedStringUnchanged(t *testing.T) {
	c := constant(t, ir.IRString("Jose\u0301"))

	w := Where{Expr: Disjunction{Conjunctions: []Conjunction{
		{Relations: []Relation{{Op: "!=", LHS: Column{Table: "q", Name: "b"}, RHS: c}}},
	}}}
	assert.Equal(t, "WHERE ((q.b != 'Jose\u0301'))", Render(w, RenderOptions{Quote: "'"}))
}

func TestRender_QuoteCharacterInValueIsNotEscaped(t *testing.T) {
	c := constant(t, ir.IRString("it's"))
	assert.Equal(t, "'it's'", Render(c, RenderOptions{Quote: "'"}))
	assert.Equal(t, `"it's"`, Render(c, RenderOptions{}))
}

func TestRender_QuoteLeavesNonStringsAlone(t *testing.T) {
	c := constant(t, ir.NewIRInt(10))
	assert.Equal(t, "10", Render(c, RenderOptions{Quote: "'"}))
}

func TestRender_Idempotent(t *testing.T) {
	u := &Union{Clauses: []Clause{
		Where{Expr: Disjunction{Conjunctions: []Conjunction{
			{Relations: []Relation{eqRel(constant(t, ir.IRString("foo")), Column{Table: "q", Name: "b"})}},
		}}},
		InnerJoin{Tables: []string{"r"}, Expr: Conjunction{Relations: []Relation{
			eqRel(Column{Table: "q", Name: "a"}, Column{Table: "r", Name: "b"}),
		}}},
	}}

	first := Render(u, RenderOptions{Quote: "'"})
	second := Render(u, RenderOptions{Quote: "'"})
	assert.Equal(t, first, second)

	// Rendering under another quote in between leaves no trace.
	_ = Render(u, RenderOptions{})
	assert.Equal(t, first, Render(u, RenderOptions{Quote: "'"}))
}

func TestRenderClauses(t *testing.T) {
	u := &Union{Clauses: []Clause{
		Where{Expr: Disjunction{Conjunctions: []Conjunction{{}}}},
		InnerJoin{Tables: []string{"r"}, Expr: Conjunction{Relations: []Relation{
			eqRel(Column{Table: "q", Name: "a"}, Column{Table: "r", Name: "b"}),
		}}},
	}}

	assert.Equal(t, []string{"WHERE (1)", "INNER JOIN r ON (q.a = r.b)"}, RenderClauses(u, RenderOptions{}))
	assert.Equal(t, "WHERE (1)\nINNER JOIN r ON (q.a = r.b)", Render(u, RenderOptions{}))
	assert.Nil(t, RenderClauses(nil, RenderOptions{}))
}

func TestNewConstant_RejectsComposite(t *testing.T) {
	_, err := NewConstant(ir.IRArray{})
	assert.Error(t, err)
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, "'", DialectFor("sqlite3").Quote)
	assert.Equal(t, "'", DialectFor("PGX").Quote)
	assert.Equal(t, "mssql", DialectFor("sqlserver").Name)

	d := DialectFor("unknown")
	assert.Equal(t, "default", d.Name)
	assert.Equal(t, RenderOptions{Quote: `"`}, d.Options())
}

func TestRender_StringsDoNotLeakBetweenCalls(t *testing.T) {
	c := constant(t, ir.IRString("x"))
	out := Render(c, RenderOptions{Quote: "'"})
	assert.False(t, strings.Contains(out, `"`))
}
