package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"; empty means the command's default
	EnvFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the reqlgate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reqlgate",
		Short: "reqlgate - a RethinkDB query gateway",
		Long: `Run restricted REQL chains against RethinkDB without evaluating code.

A query such as db('test').table('authors').filter({'name': 'A'}) is parsed
into a closed set of operations, executed over a single scoped connection and
returned as a list of documents.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "" && !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded when present")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// formatOr returns the selected format, or def when none was given.
func (o *RootOptions) formatOr(def string) string {
	if o.Format == "" {
		return def
	}
	return o.Format
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
