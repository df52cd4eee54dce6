package cli

import (
	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	requestFlags
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a policy query into a row-filter decision",
		Long: `Ask the policy engine to partially evaluate a query with the
application's tables unknown, and translate the result into SQL clauses.

Unknown table names are sent as data.<table>. With --recording, responses
are served from a recording file instead of the engine. With --policy, the
policy files are partially evaluated in-process.

Exit codes:
  0 - Decision is defined (allow all or allow matching rows)
  1 - Decision is never defined (deny), or translation failed
  2 - Command error (engine unreachable, bad input, etc.)

Examples:
  rowfilter compile -q 'data.example.allow == true' -i '{"user":"bob"}' -u posts
  rowfilter compile --config rowfilter.cue -i @input.json
  rowfilter compile --recording testdata/recording.json -i '{"user":"bob"}' --format json
  rowfilter compile --policy policy.rego -q 'data.test.p == true' -i '{"a":{"b":"foo"}}' -u q --from q`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	opts.requestFlags.register(cmd)

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
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
	req, err := opts.requestFlags.request(cfg)
	if err != nil {
		return formatter.Fail("invalid request", err)
	}
	ev, err := opts.requestFlags.evaluator(cfg)
	if err != nil {
		return formatter.Fail("creating evaluator", err)
	}

	formatter.VerboseLog("Compiling %q with unknowns %v", req.Query, req.Unknowns)

	c := newCompiler(opts.RootOptions, ev, formatter.GetErrWriter())
	d, err := c.Compile(cmd.Context(), req)
	if err != nil {
		return formatter.Fail("compile failed", err)
	}

	return outputDecision(formatter, newDecisionResult(d, renderOptions(opts.Quote, cfg)), d.Defined)
}
