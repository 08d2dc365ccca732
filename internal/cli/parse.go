package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reqlgate/internal/ir"
	"github.com/roach88/reqlgate/internal/queryir"
	"github.com/roach88/reqlgate/internal/queryreql"
	"github.com/roach88/reqlgate/internal/reql"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Query      string
	Operations bool
}

// ParseResult is the output of the parse command.
type ParseResult struct {
	Query       string `json:"query"`
	Fingerprint string `json:"fingerprint"`
	Stage       string `json:"stage"`
	Term        string `json:"term"`
	Descriptor  any    `json:"descriptor"`
}

func (p ParseResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query:       %s\n", p.Query)
	fmt.Fprintf(&b, "fingerprint: %s\n", p.Fingerprint)
	fmt.Fprintf(&b, "stage:       %s\n", p.Stage)
	fmt.Fprintf(&b, "term:        %s", p.Term)
	return b.String()
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "Parse and validate a query without connecting",
		Long: `Parse a REQL chain and print its canonical form, fingerprint and the
driver term it compiles to. Nothing is sent to a server.

Examples:
  reqlgate parse "db('test').table('authors').count()"
  reqlgate parse --query "db('test').tableList()" --format json
  reqlgate parse --operations`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if opts.Query != "" {
					return NewExitError(ExitCommandError, "give the query as an argument or with --query, not both")
				}
				opts.Query = args[0]
			}
			return runParse(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "REQL chain starting with db('<name>')")
	cmd.Flags().BoolVar(&opts.Operations, "operations", false, "list the supported operations and exit")

	return cmd
}

func runParse(opts *ParseOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:  opts.formatOr("text"),
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	if opts.Operations {
		ops := reql.Supported()
		if out.Format == "json" {
			return out.Success(ops)
		}
		return out.Success(strings.Join(ops, "\n"))
	}

	if opts.Query == "" {
		return NewExitError(ExitCommandError, "a query is required")
	}

	d, err := reql.Parse(opts.Query)
	if err != nil {
		return reportFailure(out, asFailure(err))
	}

	term, stage, err := queryreql.NewCompiler().Compile(d)
	if err != nil {
		return reportFailure(out, asFailure(err))
	}

	fingerprint, err := queryir.Fingerprint(d)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to fingerprint query", err)
	}

	return out.Success(ParseResult{
		Query:       d.String(),
		Fingerprint: fingerprint,
		Stage:       stage.String(),
		Term:        term.String(),
		Descriptor:  ir.ToNative(queryir.Encode(d)),
	})
}
