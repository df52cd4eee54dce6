package filter

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowfilter/internal/compiler"
	"github.com/roach88/rowfilter/internal/partial"
	"github.com/roach88/rowfilter/internal/queryset"
	"github.com/roach88/rowfilter/internal/sqlast"
)

// evaluatorFunc adapts a function to partial.Evaluator.
type evaluatorFunc func(ctx context.Context, req partial.Request) (*partial.Response, error)

func (f evaluatorFunc) Partial(ctx context.Context, req partial.Request) (*partial.Response, error) {
	return f(ctx, req)
}

// staticEvaluator returns the parsed queries for every request.
func staticEvaluator(srcs ...string) evaluatorFunc {
	return func(context.Context, partial.Request) (*partial.Response, error) {
		qs := queryset.QuerySet{}
		if len(srcs) > 0 {
			qs = queryset.MustParseQuerySet(srcs...)
		}
		return &partial.Response{Queries: qs}, nil
	}
}

func newTestCompiler(ev partial.Evaluator) *Compiler {
	return New(ev,
		WithIDGenerator(NewFixedGenerator("decision-1", "decision-2")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestCompile_NeverDefined(t *testing.T) {
	c := newTestCompiler(staticEvaluator())

	d, err := c.Compile(context.Background(), Request{Query: "data.test.p == true", FromTable: "q"})
	require.NoError(t, err)

	assert.Equal(t, "decision-1", d.ID)
	assert.False(t, d.Defined)
	assert.Nil(t, d.SQL)
	assert.False(t, d.Unconditional())
}

func TestCompile_Unconditional(t *testing.T) {
	// One empty disjunct is enough, whatever the others say.
	c := newTestCompiler(evaluatorFunc(func(context.Context, partial.Request) (*partial.Response, error) {
		qs := queryset.MustParseQuerySet(`data.q[x].a = 1`)
		qs = append(qs, queryset.Query{})
		return &partial.Response{Queries: qs}, nil
	}))

	d, err := c.Compile(context.Background(), Request{Query: "data.test.p == true", FromTable: "q"})
	require.NoError(t, err)

	assert.True(t, d.Defined)
	assert.Nil(t, d.SQL)
	assert.True(t, d.Unconditional())
}

func TestCompile_Conditional(t *testing.T) {
	var got partial.Request
	ev := evaluatorFunc(func(ctx context.Context, req partial.Request) (*partial.Response, error) {
		got = req
		return staticEvaluator(`data.posts[x]; "bob" = x.author`)(ctx, req)
	})
	c := newTestCompiler(ev)

	d, err := c.Compile(context.Background(), Request{
		Query:     "data.example.allow == true",
		Input:     map[string]any{"user": "bob"},
		Unknowns:  []string{"posts", "data.users"},
		FromTable: "posts",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"data.posts", "data.users"}, got.Unknowns)
	assert.Equal(t, "data.example.allow == true", got.Query)
	assert.Equal(t, map[string]any{"user": "bob"}, got.Input)

	require.True(t, d.Defined)
	require.NotNil(t, d.SQL)
	assert.False(t, d.Unconditional())
	assert.Equal(t, []string{`WHERE (("bob" = posts.author))`}, d.Clauses(sqlast.RenderOptions{}))
	assert.Equal(t, []string{`WHERE (('bob' = posts.author))`}, d.Clauses(sqlast.DialectFor("sqlite3").Options()))
}

func TestCompile_Join(t *testing.T) {
	c := newTestCompiler(staticEvaluator(`data.q[x].a = data.r[y].b`))

	d, err := c.Compile(context.Background(), Request{Query: "data.test.p == true", Unknowns: []string{"q", "r"}, FromTable: "q"})
	require.NoError(t, err)

	require.NotNil(t, d.SQL)
	require.Len(t, d.SQL.Clauses, 1)
	join, ok := d.SQL.Clauses[0].(sqlast.InnerJoin)
	require.True(t, ok)
	assert.Equal(t, []string{"r"}, join.Tables)
	assert.Equal(t, "INNER JOIN r ON (q.a = r.b)", sqlast.Render(join, sqlast.RenderOptions{}))
}

func TestCompile_TranslationErrorPropagates(t *testing.T) {
	c := newTestCompiler(staticEvaluator(`data.q[_].a = 10; data.q[_].b = 20`))

	d, err := c.Compile(context.Background(), Request{Query: "data.test.p == true", Unknowns: []string{"q"}, FromTable: "q"})
	require.Error(t, err)
	assert.True(t, compiler.IsCode(err, compiler.ErrCodeSelfJoinUnsupported))
	assert.Equal(t, Decision{}, d)
}

func TestCompile_TranslatorErrorPropagates(t *testing.T) {
	c := newTestCompiler(staticEvaluator(`count(data.q[x].a, 1)`))

	_, err := c.Compile(context.Background(), Request{Query: "data.test.p == true", FromTable: "q"})
	assert.True(t, compiler.IsCode(err, compiler.ErrCodeUnsupportedOperator))
}

func TestCompile_EvaluatorErrorPropagates(t *testing.T) {
	evalErr := &partial.EvalError{Status: 400, Code: "invalid_parameter", Message: "bad query"}
	c := newTestCompiler(evaluatorFunc(func(context.Context, partial.Request) (*partial.Response, error) {
		return nil, evalErr
	}))

	_, err := c.Compile(context.Background(), Request{Query: "data.x ="})
	assert.Same(t, evalErr, err)
	assert.False(t, compiler.IsTranslationError(err))
}

func TestCompile_FileEvaluator(t *testing.T) {
	fe, err := partial.ParseRecording([]byte(`{"entries":[{
		"request":{"query":"data.example.allow == true","input":{"user":"bob"},"unknowns":["data.posts"]},
		"result":{"queries":[[{"index":0,"terms":[
			{"type":"ref","value":[{"type":"var","value":"eq"}]},
			{"type":"string","value":"bob"},
			{"type":"ref","value":[{"type":"var","value":"data"},{"type":"string","value":"posts"},{"type":"var","value":"$01"},{"type":"string","value":"author"}]}
		]}]]}
	}]}`))
	require.NoError(t, err)
	c := newTestCompiler(fe)

	req := Request{
		Query:     "data.example.allow == true",
		Input:     map[string]any{"user": "bob"},
		Unknowns:  []string{"posts"},
		FromTable: "posts",
	}

	// Compiling twice must not trip over the first call's rewrites.
	for _, id := range []string{"decision-1", "decision-2"} {
		d, err := c.Compile(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, id, d.ID)
		assert.Equal(t, []string{`WHERE (("bob" = posts.author))`}, d.Clauses(sqlast.RenderOptions{}))
	}
}

func TestCompile_DefaultIDs(t *testing.T) {
	c := New(staticEvaluator(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	d1, err := c.Compile(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	d2, err := c.Compile(context.Background(), Request{Query: "q"})
	require.NoError(t, err)

	assert.Len(t, d1.ID, 36)
	assert.NotEqual(t, d1.ID, d2.ID)
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestCompile_RegoRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]any
		policy   string
		defined  bool
		expected []string
	}{
		{
			name:  "trivial",
			input: map[string]any{"a": map[string]any{"b": "foo"}},
			policy: `package test
p {
	data.q[x]
	x.b = input.a.b
}`,
			defined:  true,
			expected: []string{`WHERE (("foo" = q.b))`},
		},
		{
			name:  "input missing",
			input: map[string]any{"a": map[string]any{"c": "bar"}},
			policy: `package test
p {
	data.q[x]
	x.b = input.a.b
}`,
			defined: false,
		},
		{
			name:  "inline wildcard",
			input: map[string]any{"a": map[string]any{"b": "foo"}},
			policy: `package test
p {
	data.q[_].b = input.a.b
}`,
			defined:  true,
			expected: []string{`WHERE (("foo" = q.b))`},
		},
		{
			name:  "conjunction",
			input: map[string]any{"a": map[string]any{"b": "foo", "c": "bar"}},
			policy: `package test
p {
	data.q[x]
	x.b = input.a.b
	x.c = input.a.c
}`,
			defined:  true,
			expected: []string{`WHERE (("foo" = q.b AND "bar" = q.c))`},
		},
		{
			name:  "comparison",
			input: map[string]any{"a": map[string]any{"b": "foo"}},
			policy: `package test
p {
	data.q[x]
	x.b = input.a.b
	x.n > 1
}`,
			defined:  true,
			expected: []string{`WHERE (("foo" = q.b AND q.n > 1))`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := partial.NewRegoEvaluator(map[string]string{"test.rego": tt.policy})
			require.NoError(t, err)

			d, err := newTestCompiler(ev).Compile(context.Background(), Request{
				Query:     "data.test.p == true",
				Input:     tt.input,
				Unknowns:  []string{"q"},
				FromTable: "q",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.defined, d.Defined)
			assert.Equal(t, tt.expected, d.Clauses(sqlast.RenderOptions{}))
		})
	}
}
