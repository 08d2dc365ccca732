package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/reqlgate/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database    string
	Limit       int
	Status      string
	Fingerprint string
	ID          string
	Stats       bool
}

// HistoryEntry is one execution in history output.
type HistoryEntry struct {
	ID          string            `json:"id"`
	StartedAt   string            `json:"started_at"`
	Status      string            `json:"status"`
	Message     string            `json:"message,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	Query       string            `json:"query"`
	Fingerprint string            `json:"fingerprint"`
	Address     string            `json:"address"`
	User        string            `json:"user"`
	Documents   int               `json:"documents"`
	DurationMS  int64             `json:"duration_ms"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded executions",
		Long: `List executions recorded with query --history, newest first.

Examples:
  reqlgate history --db ./reqlgate.db
  reqlgate history --db ./reqlgate.db --status AUTH_FAILED --limit 5
  reqlgate history --db ./reqlgate.db --stats --format json
  reqlgate history --db ./reqlgate.db --id 01920d4e-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", store.DefaultListLimit, "maximum number of executions")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only executions with this status (ok or a failure kind)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only executions of this query fingerprint")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show one execution by id")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print counts per status instead of executions")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := &OutputFormatter{
		Format:  opts.formatOr("text"),
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Stats {
		counts, err := st.CountByStatus(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to count executions", err)
		}
		if out.Format == "json" {
			return out.Success(counts)
		}
		return out.Success(formatCounts(counts))
	}

	if opts.ID != "" {
		e, err := st.GetExecution(ctx, opts.ID)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("no execution with id %q", opts.ID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read execution", err)
		}
		entry := toHistoryEntry(e)
		if out.Format == "json" {
			return out.Success(entry)
		}
		return writeHistoryTable(out, []HistoryEntry{entry})
	}

	executions, err := st.ListExecutions(ctx, store.ListOptions{
		Limit:       opts.Limit,
		Fingerprint: opts.Fingerprint,
		Status:      opts.Status,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list executions", err)
	}

	entries := make([]HistoryEntry, len(executions))
	for i, e := range executions {
		entries[i] = toHistoryEntry(e)
	}

	if out.Format == "json" {
		return out.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out.Writer, "No executions recorded")
		return nil
	}
	return writeHistoryTable(out, entries)
}

func toHistoryEntry(e store.Execution) HistoryEntry {
	return HistoryEntry{
		ID:          e.ID,
		StartedAt:   e.StartedAt.Format(time.RFC3339),
		Status:      e.Status,
		Message:     e.Message,
		Details:     e.Details,
		Query:       e.Query,
		Fingerprint: e.Fingerprint,
		Address:     e.Address,
		User:        e.User,
		Documents:   e.Documents,
		DurationMS:  e.DurationMS,
	}
}

func writeHistoryTable(out *OutputFormatter, entries []HistoryEntry) error {
	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tDOCS\tDURATION\tQUERY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%dms\t%s\n", e.StartedAt, e.Status, e.Documents, e.DurationMS, e.Query)
		if out.Verbose && e.Message != "" {
			fmt.Fprintf(tw, "\t\t\t\t%s\n", e.Message)
		}
	}
	return tw.Flush()
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "No executions recorded"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%-22s %d", k, counts[k])
	}
	return strings.Join(lines, "\n")
}
