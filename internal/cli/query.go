package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/reqlgate/internal/executor"
	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/reql"
	"github.com/roach88/reqlgate/internal/result"
	"github.com/roach88/reqlgate/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Task  string
	Check bool

	// Dialer allows overriding the connection (for testing).
	// If nil, defaults to executor.SessionDialer.
	Dialer executor.Dialer
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(&QueryOptions{RootOptions: rootOpts})
}

func newQueryCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a REQL query",
		Long: `Parse a REQL chain, run it against RethinkDB and print the documents.

Settings come from flags, then REQLGATE_* environment variables (a .env file
is loaded when present), then the task file given with --task.

Output defaults to JSON:
  {"changed":false,"data":[...]}                       on success
  {"failed":true,"kind":"AUTH_FAILED","msg":"..."}      on failure, exit code 1

Examples:
  reqlgate query --host localhost --user admin --password '' \
      --query "db('test').table('authors').filter({'name': 'A'})"
  REQLGATE_PASSWORD=s3cret reqlgate query --task task.yaml
  reqlgate query --task task.cue --check`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().String("host", "", "RethinkDB host")
	cmd.Flags().Int("port", executor.DefaultPort, "RethinkDB client driver port")
	cmd.Flags().String("user", "", "user to connect as")
	cmd.Flags().String("password", "", "password for user")
	cmd.Flags().StringP("query", "q", "", "REQL chain starting with db('<name>')")
	cmd.Flags().Duration("timeout", executor.DefaultTimeout, "deadline for the whole call")
	cmd.Flags().String("history", "", "SQLite file to record the execution in")
	cmd.Flags().StringVar(&opts.Task, "task", "", "YAML or CUE task file")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "parse and validate only; do not connect")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.formatOr("json"),
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	settings, err := resolveSettings(cmd, opts.EnvFile, opts.Task)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	d, err := reql.Parse(settings.Query)
	if err != nil {
		return reportFailure(out, asFailure(err))
	}

	if opts.Check {
		out.VerboseLog("check mode: %s is valid, not connecting", d)
		return out.Documents(result.QueryResult{})
	}

	execOpts := []executor.Option{executor.WithLogger(slog.Default())}
	if opts.Dialer != nil {
		execOpts = append(execOpts, executor.WithDialer(opts.Dialer))
	}
	if settings.History != "" {
		st, err := store.Open(settings.History)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history", err)
		}
		defer st.Close()
		execOpts = append(execOpts, executor.WithRecorder(st))
	}

	ex := executor.New(execOpts...)
	switch o := ex.Execute(cmd.Context(), settings.Params, d, settings.Timeout).(type) {
	case executor.Success:
		return out.Documents(o.Result)
	case executor.Failure:
		switch {
		case failure.IsParseError(o.Err):
			out.VerboseLog("rejected before connecting to %s", settings.Params.Address())
		case failure.IsRetryable(o.Err):
			out.VerboseLog("%s may succeed if retried", o.Err.Kind)
		}
		return reportFailure(out, o.Err)
	default:
		return NewExitError(ExitFailure, "unexpected outcome")
	}
}

func asFailure(err error) *failure.Error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe
	}
	return failure.Wrap(failure.KindMalformedQuery, err, "")
}
