package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"

	"github.com/roach88/rowfilter/internal/compiler"
	"github.com/roach88/rowfilter/internal/filter"
	"github.com/roach88/rowfilter/internal/partial"
	"github.com/roach88/rowfilter/internal/sqlast"
	"github.com/roach88/rowfilter/internal/store"
)

// DefaultQuery is the policy query of scenarios that do not name one.
const DefaultQuery = "data.scenario.allow == true"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Decision is the compiled decision. Zero when Error is set.
	Decision filter.Decision `json:"-"`

	Defined   bool     `json:"defined"`
	Clauses   []string `json:"clauses,omitempty"`
	Statement string   `json:"statement,omitempty"`

	// Rows are the selected post IDs, sorted. Only populated when the
	// scenario expects rows.
	Rows []string `json:"rows,omitempty"`

	// Error is the translation error code, if translation failed.
	Error string `json:"error,omitempty"`

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// AddError records an expectation mismatch and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario.
//
// Translation errors are part of the result; only failures to run the
// scenario at all (unreadable response files, evaluator errors, database
// errors) are returned as errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	ev, err := evaluatorFor(scenario)
	if err != nil {
		return nil, err
	}

	c := filter.New(ev,
		filter.WithIDGenerator(filter.NewFixedGenerator(scenario.Name)),
		filter.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	req := filter.Request{
		Query:     scenario.Query,
		Input:     scenario.Input,
		Unknowns:  scenario.Unknowns,
		FromTable: scenario.FromTable,
	}
	if req.Query == "" {
		req.Query = DefaultQuery
	}
	if len(req.Unknowns) == 0 {
		req.Unknowns = []string{scenario.FromTable}
	}

	result := &Result{Pass: true, Errors: []string{}}

	d, err := c.Compile(ctx, req)
	var te *compiler.TranslationError
	switch {
	case errors.As(err, &te):
		result.Error = string(te.Code)
	case err != nil:
		return nil, fmt.Errorf("compile: %w", err)
	default:
		opts := sqlast.RenderOptions{Quote: scenario.Quote}
		result.Decision = d
		result.Defined = d.Defined
		result.Clauses = d.Clauses(opts)
		if d.Defined {
			result.Statement = filter.Splice(selectClause(scenario), scenario.FromTable, scenario.Where, d, opts)
		}
	}

	if scenario.Expect.Rows != nil && result.Error == "" {
		rows, err := selectRows(ctx, result)
		if err != nil {
			return nil, err
		}
		result.Rows = rows
	}

	checkExpectations(scenario.Expect, result)
	return result, nil
}

func evaluatorFor(s *Scenario) (partial.Evaluator, error) {
	if s.Response != "" {
		fe, err := partial.LoadFile(s.Response)
		if err != nil {
			return nil, fmt.Errorf("failed to load response: %w", err)
		}
		return fe, nil
	}
	return partial.StaticEvaluator{Queries: s.Queries}, nil
}

func selectClause(s *Scenario) string {
	if s.Select == "" {
		return "*"
	}
	return s.Select
}

// selectRows runs the statement against a fresh sample database. A
// decision that is never defined selects nothing.
func selectRows(ctx context.Context, result *Result) ([]string, error) {
	if !result.Defined {
		return []string{}, nil
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.Seed(ctx); err != nil {
		return nil, err
	}

	rows, err := st.QueryRows(ctx, result.Statement)
	if err != nil {
		return nil, fmt.Errorf("statement %q: %w", result.Statement, err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id, ok := row["id"].(string)
		if !ok {
			return nil, fmt.Errorf("statement %q: rows have no id column", result.Statement)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func checkExpectations(e Expect, r *Result) {
	if e.Error != "" || r.Error != "" {
		if e.Error != r.Error {
			r.AddError("error: expected %q, got %q", e.Error, r.Error)
		}
		return
	}

	if e.Defined != nil && *e.Defined != r.Defined {
		r.AddError("defined: expected %t, got %t", *e.Defined, r.Defined)
	}
	if e.Clauses != nil && !equalStrings(e.Clauses, r.Clauses) {
		r.AddError("clauses: expected %q, got %q", e.Clauses, r.Clauses)
	}
	if e.Statement != "" && e.Statement != r.Statement {
		r.AddError("statement: expected %q, got %q", e.Statement, r.Statement)
	}
	if e.Rows != nil {
		want := append([]string(nil), e.Rows...)
		sort.Strings(want)
		if !equalStrings(want, r.Rows) {
			r.AddError("rows: expected %v, got %v", want, r.Rows)
		}
	}
}

// equalStrings treats nil and empty as equal.
func equalStrings(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
