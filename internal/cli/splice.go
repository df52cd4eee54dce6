package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/rowfilter/internal/filter"
)

// SpliceOptions holds flags for the splice command.
type SpliceOptions struct {
	*RootOptions
	residualSource
	FromTable string
	Quote     string
	Select    string
	Where     string
}

// NewSpliceCommand creates the splice command.
func NewSpliceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SpliceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "splice [query...]",
		Short: "Splice translated residual queries into a SELECT",
		Long: `Translate residual queries and splice the clauses into
SELECT <select> FROM <from>, one statement per clause combined with UNION.
--where adds the application's own condition to every statement.

Residual queries are given as for translate.

Examples:
  rowfilter splice --from posts --select 'posts.*' 'data.posts[x]; "bob" = x.author'
  rowfilter splice --from posts --where "posts.id = ?" --response compile.json`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplice(opts, args, cmd)
		},
	}

	opts.residualSource.register(cmd)
	cmd.Flags().StringVar(&opts.FromTable, "from", "", "base table of the query (default: config from_table)")
	cmd.Flags().StringVar(&opts.Quote, "quote", "", "string literal delimiter for rendered SQL")
	cmd.Flags().StringVar(&opts.Select, "select", "*", "select list")
	cmd.Flags().StringVar(&opts.Where, "where", "", "additional condition for every statement")

	return cmd
}

func runSplice(opts *SpliceOptions, args []string, cmd *cobra.Command) error {
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

	from := firstNonEmpty(opts.FromTable, cfg.FromTable)
	c := newCompiler(opts.RootOptions, ev, formatter.GetErrWriter())
	d, err := c.Compile(cmd.Context(), filter.Request{
		Query:     cfg.Query,
		Unknowns:  cfg.Unknowns,
		FromTable: from,
	})
	if err != nil {
		return formatter.Fail("translation failed", err)
	}

	ropts := renderOptions(opts.Quote, cfg)
	result := newDecisionResult(d, ropts)
	if d.Defined {
		result.Statement = filter.Splice(opts.Select, from, opts.Where, d, ropts)
	}
	return outputDecision(formatter, result, d.Defined)
}
