// Package filter turns a policy query into a row-filter decision.
//
// Compile asks the policy engine to partially evaluate the query with the
// application's tables declared unknown, then classifies the result:
//
//   - no disjuncts: the query is never defined (deny)
//   - an empty disjunct: the query is always defined (allow everything)
//   - otherwise: the residual queries are translated to SQL clauses
//
// Splice assembles the caller's SELECT with the decision's clauses.
package filter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/rowfilter/internal/compiler"
	"github.com/roach88/rowfilter/internal/partial"
	"github.com/roach88/rowfilter/internal/sqlast"
)

// unknownPrefix roots the application's tables in the engine's data tree.
const unknownPrefix = "data."

// Request is a compile request.
type Request struct {
	// Query is the policy query, e.g. "data.example.allow == true".
	Query string

	// Input is the known input document.
	Input any

	// Unknowns are the table names the engine must leave unevaluated.
	// Each is prefixed with "data." unless it already is.
	Unknowns []string

	// FromTable is the table the caller's query selects from. It never
	// appears among the tables of an emitted join.
	FromTable string
}

// Decision is the outcome of Compile.
//
//   - Defined=false: deny unconditionally.
//   - Defined=true, SQL=nil: allow unconditionally.
//   - Defined=true, SQL!=nil: allow rows matching SQL.
type Decision struct {
	ID      string
	Defined bool
	SQL     *sqlast.Union
}

// Unconditional reports whether the decision allows every row.
func (d Decision) Unconditional() bool {
	return d.Defined && d.SQL == nil
}

// Clauses renders each SQL clause of the decision.
func (d Decision) Clauses(opts sqlast.RenderOptions) []string {
	return sqlast.RenderClauses(d.SQL, opts)
}

// Compiler compiles policy queries into decisions.
//
// Thread-safety: Compiler is safe for concurrent use if its evaluator and
// ID generator are. Each call works on its own query set.
type Compiler struct {
	evaluator partial.Evaluator
	ids       IDGenerator
	logger    *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithIDGenerator sets the decision ID generator.
//
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Compiler) {
		c.ids = g
	}
}

// WithLogger sets the logger.
//
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// New creates a Compiler backed by evaluator.
func New(evaluator partial.Evaluator, opts ...Option) *Compiler {
	c := &Compiler{
		evaluator: evaluator,
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile produces a decision for req.
//
// Evaluator errors and translation errors are returned unchanged; no
// decision is produced in either case.
func (c *Compiler) Compile(ctx context.Context, req Request) (Decision, error) {
	preq := partial.Request{
		Query:    req.Query,
		Input:    req.Input,
		Unknowns: qualifyUnknowns(req.Unknowns),
	}

	logger := c.logger.With("query", req.Query)
	if fp, err := preq.Fingerprint(); err == nil {
		logger = logger.With("request", fp[:12])
	}

	resp, err := c.evaluator.Partial(ctx, preq)
	if err != nil {
		logger.Error("partial evaluation failed", "error", err)
		return Decision{}, err
	}

	d := Decision{ID: c.ids.Generate()}
	logger = logger.With("decision", d.ID)

	qs := resp.Queries
	switch {
	case qs.Undefined():
		logger.Info("decision: never defined")
		return d, nil
	case qs.Unconditional():
		d.Defined = true
		logger.Info("decision: unconditionally defined")
		return d, nil
	}

	logger.Debug("translating queries", "disjuncts", len(qs), "queries", qs.Strings())

	if err := compiler.Preprocess(qs); err != nil {
		logger.Warn("translation failed", "error", err)
		return Decision{}, err
	}
	union, err := compiler.Translate(qs, req.FromTable)
	if err != nil {
		logger.Warn("translation failed", "error", err)
		return Decision{}, err
	}

	d.Defined = true
	d.SQL = union
	logger.Info("decision: conditionally defined", "clauses", len(union.Clauses))
	return d, nil
}

func qualifyUnknowns(tables []string) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		if strings.HasPrefix(t, unknownPrefix) {
			out[i] = t
			continue
		}
		out[i] = unknownPrefix + t
	}
	return out
}
