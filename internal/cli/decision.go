package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rowfilter/internal/config"
	"github.com/roach88/rowfilter/internal/filter"
	"github.com/roach88/rowfilter/internal/partial"
	"github.com/roach88/rowfilter/internal/sqlast"
)

// requestFlags are the compile request flags of the compile and query
// commands. Empty flags fall back to the config file.
type requestFlags struct {
	Query     string
	Input     string
	Unknowns  []string
	FromTable string
	Quote     string
	Engine    string
	Recording string
	Policies  []string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.Query, "query", "q", "", "policy query (default: config query)")
	fl.StringVarP(&f.Input, "input", "i", "", "input document as JSON, or @file")
	fl.StringSliceVarP(&f.Unknowns, "unknowns", "u", nil, "unknown tables (default: config unknowns)")
	fl.StringVar(&f.FromTable, "from", "", "base table of the query (default: config from_table)")
	fl.StringVar(&f.Quote, "quote", "", "string literal delimiter for rendered SQL")
	fl.StringVar(&f.Engine, "engine", "", "policy engine URL (default: config engine.url)")
	fl.StringVar(&f.Recording, "recording", "", "serve recorded compile responses from this file")
	fl.StringSliceVar(&f.Policies, "policy", nil, "evaluate in-process against these policy files (repeatable)")
}

func (f *requestFlags) request(cfg *config.Config) (filter.Request, error) {
	req := filter.Request{
		Query:     firstNonEmpty(f.Query, cfg.Query),
		Unknowns:  f.Unknowns,
		FromTable: firstNonEmpty(f.FromTable, cfg.FromTable),
	}
	if len(req.Unknowns) == 0 {
		req.Unknowns = cfg.Unknowns
	}
	if req.Query == "" {
		return req, errors.New("no policy query: use --query or set query in the config file")
	}

	input, err := parseInput(f.Input)
	if err != nil {
		return req, err
	}
	req.Input = input
	return req, nil
}

func (f *requestFlags) evaluator(cfg *config.Config) (partial.Evaluator, error) {
	if rec := firstNonEmpty(f.Recording, cfg.Recording); rec != "" {
		return partial.LoadFile(rec)
	}
	policies := f.Policies
	if len(policies) == 0 {
		policies = cfg.Policies
	}
	if len(policies) > 0 {
		return partial.LoadPolicies(policies...)
	}
	timeout, err := cfg.EngineTimeout()
	if err != nil {
		return nil, err
	}
	url := firstNonEmpty(f.Engine, cfg.Engine.URL)
	return partial.NewHTTPEvaluator(url, &http.Client{Timeout: timeout}), nil
}

// parseInput decodes the --input flag. A leading '@' names a file.
// Numbers are kept as json.Number so request fingerprints match recordings.
func parseInput(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	data := []byte(s)
	if strings.HasPrefix(s, "@") {
		b, err := os.ReadFile(s[1:])
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		data = b
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return v, nil
}

// residualSource supplies residual queries without an engine: text
// queries from the command line, or a recorded compile response.
type residualSource struct {
	Response string
}

func (r *residualSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.Response, "response", "", "read residual queries from a compile response file")
}

func (r *residualSource) evaluator(args []string) (partial.Evaluator, error) {
	switch {
	case r.Response != "" && len(args) > 0:
		return nil, errors.New("queries and --response are mutually exclusive")
	case r.Response != "":
		return partial.LoadFile(r.Response)
	case len(args) == 0:
		return nil, errors.New("no residual queries: pass them as arguments or use --response")
	}
	// A lone "-" or "" argument is an unconditional disjunct.
	queries := make([]string, len(args))
	for i, a := range args {
		if a != "-" {
			queries[i] = a
		}
	}
	return partial.StaticEvaluator{Queries: queries}, nil
}

func renderOptions(quote string, cfg *config.Config) sqlast.RenderOptions {
	return sqlast.RenderOptions{Quote: firstNonEmpty(quote, cfg.Quote)}
}

func newCompiler(opts *RootOptions, ev partial.Evaluator, logs io.Writer) *filter.Compiler {
	return filter.New(ev, filter.WithLogger(opts.Logger(logs)))
}

// DecisionResult is the output form of a decision.
type DecisionResult struct {
	ID            string   `json:"id"`
	Defined       bool     `json:"defined"`
	Unconditional bool     `json:"unconditional"`
	Clauses       []string `json:"clauses,omitempty"`
	Statement     string   `json:"statement,omitempty"`
	Tree          string   `json:"tree,omitempty"`
}

func newDecisionResult(d filter.Decision, opts sqlast.RenderOptions) DecisionResult {
	return DecisionResult{
		ID:            d.ID,
		Defined:       d.Defined,
		Unconditional: d.Unconditional(),
		Clauses:       d.Clauses(opts),
	}
}

// String is the text output form.
func (r DecisionResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "decision %s: ", r.ID)
	switch {
	case !r.Defined:
		b.WriteString("deny (never defined)")
	case r.Unconditional:
		b.WriteString("allow all (unconditionally defined)")
	default:
		b.WriteString("allow matching rows")
	}
	for _, c := range r.Clauses {
		b.WriteString("\n  ")
		b.WriteString(c)
	}
	if r.Tree != "" {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimRight(r.Tree, "\n"))
	}
	if r.Statement != "" {
		b.WriteString("\n\n")
		b.WriteString(r.Statement)
	}
	return b.String()
}

// outputDecision prints data and turns a deny into exit code 1.
func outputDecision(f *OutputFormatter, data any, defined bool) error {
	if err := f.Success(data); err != nil {
		return err
	}
	if !defined {
		return NewExitError(ExitFailure, "decision: never defined")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
