package cli

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/roach88/rowfilter/internal/filter"
	"github.com/roach88/rowfilter/internal/sqlast"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	residualSource
	FromTable string
	Quote     string
	Pretty    bool
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate [query...]",
		Short: "Translate residual queries to SQL clauses",
		Long: `Translate residual queries, as returned by partial evaluation, into
SQL clauses without contacting the policy engine.

Each argument is one disjunct: expressions separated by ';'. An empty
argument or "-" is an unconditional disjunct. Alternatively --response
reads a compile API response body.

Exit codes:
  0 - Decision is defined
  1 - Decision is never defined, or translation failed
  2 - Command error

Examples:
  rowfilter translate --from q 'data.q[x]; "foo" = x.b'
  rowfilter translate --from q 'data.q[x].a = data.r[y].b' --pretty
  rowfilter translate --from posts --response compile.json`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args, cmd)
		},
	}

	opts.residualSource.register(cmd)
	cmd.Flags().StringVar(&opts.FromTable, "from", "", "base table of the query (default: config from_table)")
	cmd.Flags().StringVar(&opts.Quote, "quote", "", "string literal delimiter for rendered SQL")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "also print the SQL syntax tree")

	return cmd
}

func runTranslate(opts *TranslateOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := opts.Settings()
	if err != nil {
		return formatter.Fail("loading config", err)
	}
	ev, err := opts.residualSource.evaluator(args)
	if err != nil {
		return formatter.Fail("reading residual queries", err)
	}

	c := newCompiler(opts.RootOptions, ev, formatter.GetErrWriter())
	d, err := c.Compile(cmd.Context(), filter.Request{
		Query:     cfg.Query,
		Unknowns:  cfg.Unknowns,
		FromTable: firstNonEmpty(opts.FromTable, cfg.FromTable),
	})
	if err != nil {
		return formatter.Fail("translation failed", err)
	}

	result := newDecisionResult(d, renderOptions(opts.Quote, cfg))
	if opts.Pretty && d.SQL != nil {
		var buf bytes.Buffer
		sqlast.PrettyPrint(&buf, *d.SQL)
		result.Tree = buf.String()
	}
	return outputDecision(formatter, result, d.Defined)
}
