package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/rowfilter/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a CUE config file

	settings *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Settings returns the loaded configuration, or the schema defaults when
// no --config was given. The file is read once.
func (o *RootOptions) Settings() (*config.Config, error) {
	if o.settings != nil {
		return o.settings, nil
	}
	if o.Config == "" {
		o.settings = config.Default()
		return o.settings, nil
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}
	o.settings = cfg
	return cfg, nil
}

// Logger returns a text logger writing to w: debug level with --verbose,
// warnings only otherwise.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewRootCommand creates the root command for the rowfilter CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rowfilter",
		Short: "rowfilter - policy decisions as SQL row filters",
		Long: `Translate partially evaluated policy queries into SQL WHERE and
INNER JOIN clauses that an application splices into its own SELECT.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := opts.Settings(); err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			slog.SetDefault(opts.Logger(cmd.ErrOrStderr()))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "CUE config file")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewSpliceCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
