package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rowfilter/internal/filter"
	"github.com/roach88/rowfilter/internal/ir"
	"github.com/roach88/rowfilter/internal/sqlast"
	"github.com/roach88/rowfilter/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	requestFlags
	Driver string
	DSN    string
	Where  string
	Seed   bool
}

// QueryResult is the output of the query command.
type QueryResult struct {
	Decision DecisionResult `json:"decision"`
	Rows     []store.Row    `json:"rows"`
}

// String is the text output form: the decision, then one canonical JSON
// line per row.
func (r QueryResult) String() string {
	var b strings.Builder
	b.WriteString(r.Decision.String())
	fmt.Fprintf(&b, "\n\n%d row(s)", len(r.Rows))
	for _, row := range r.Rows {
		b.WriteString("\n")
		b.WriteString(rowLine(row))
	}
	return b.String()
}

func rowLine(row store.Row) string {
	data, err := ir.MarshalCanonical(map[string]any(row))
	if err != nil {
		return fmt.Sprint(map[string]any(row))
	}
	return string(data)
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Select the rows a policy allows",
		Long: `Compile a policy decision, splice it into SELECT <from>.* FROM <from>
and run the statement against the database.

A deny decision selects no rows and the database is not queried.
With --seed the sample posts and users are inserted first (SQLite only).

Examples:
  rowfilter query -q 'data.example.allow == true' -i '{"user":"bob"}' --dsn posts.db --seed
  rowfilter query --recording recording.json -i '{"user":"bob"}' --where "posts.department = 'sec'"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	opts.requestFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database/sql driver (default: config database.driver)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name (default: config database.dsn)")
	cmd.Flags().StringVar(&opts.Where, "where", "", "additional condition for the statement")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "insert the sample posts and users first")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	cfg, err := opts.Settings()
	if err != nil {
		return formatter.Fail("loading config", err)
	}
	req, err := opts.requestFlags.request(cfg)
	if err != nil {
		return formatter.Fail("invalid request", err)
	}
	ev, err := opts.requestFlags.evaluator(cfg)
	if err != nil {
		return formatter.Fail("creating evaluator", err)
	}

	c := newCompiler(opts.RootOptions, ev, formatter.GetErrWriter())
	d, err := c.Compile(ctx, req)
	if err != nil {
		return formatter.Fail("compile failed", err)
	}

	driver := firstNonEmpty(opts.Driver, cfg.Database.Driver)
	dsn := firstNonEmpty(opts.DSN, cfg.Database.DSN)
	st, err := store.OpenDriver(driver, dsn)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer st.Close()

	if opts.Seed {
		if err := st.Seed(ctx); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "seeding database", err)
		}
	}

	// Quote strings the way the database expects unless told otherwise.
	ropts := st.Dialect().Options()
	if q := firstNonEmpty(opts.Quote, cfg.Quote); q != "" {
		ropts = sqlast.RenderOptions{Quote: q}
	}

	result := QueryResult{
		Decision: newDecisionResult(d, ropts),
		Rows:     []store.Row{},
	}
	if d.Defined {
		stmt := filter.Splice(req.FromTable+".*", req.FromTable, opts.Where, d, ropts)
		result.Decision.Statement = stmt
		formatter.VerboseLog("Running %s", stmt)

		rows, err := st.QueryRows(ctx, stmt)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), map[string]string{"statement": stmt})
			return WrapExitError(ExitCommandError, "running statement", err)
		}
		result.Rows = rows
	}

	return outputDecision(formatter, result, d.Defined)
}
