package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/ir"
	"github.com/roach88/reqlgate/internal/result"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The query failed (parse, connection, server, ...)
	ExitCommandError = 2 // Usage error (missing parameters, unreadable task file, ...)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is true when the error was already written to the output,
	// so main only has to exit.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the output.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// QueryResponse is the JSON shape of a successful query, matching what an
// Ansible module returns.
type QueryResponse struct {
	Changed bool  `json:"changed"`
	Data    []any `json:"data"`
}

// FailureResponse is the JSON shape of a failed command.
type FailureResponse struct {
	Failed  bool              `json:"failed"`
	Kind    string            `json:"kind"`
	Msg     string            `json:"msg"`
	Details map[string]string `json:"details,omitempty"`
}

var (
	errorColor = color.New(color.FgRed, color.Bold)
	kindColor  = color.New(color.FgYellow)
)

// Documents outputs a query result. Text output is one canonical JSON
// document per line.
func (f *OutputFormatter) Documents(docs result.QueryResult) error {
	if f.Format == "json" {
		return f.encodeJSON(QueryResponse{Changed: false, Data: docs.Native()})
	}

	for _, doc := range docs {
		line, err := ir.MarshalCanonical(map[string]any(doc))
		if err != nil {
			return err
		}
		fmt.Fprintln(f.Writer, string(line))
	}
	return nil
}

// Success outputs an arbitrary payload in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encodeJSON(data)
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Failure outputs a categorized error in the configured format.
func (f *OutputFormatter) Failure(fe *failure.Error) error {
	if f.Format == "json" {
		return f.encodeJSON(FailureResponse{
			Failed:  true,
			Kind:    string(fe.Kind),
			Msg:     fe.Message,
			Details: fe.Details,
		})
	}

	fmt.Fprintf(f.Writer, "%s [%s]: %s\n",
		errorColor.Sprint("Error"), kindColor.Sprint(fe.Kind), fe.Message)
	if f.Verbose && len(fe.Details) > 0 {
		keys := make([]string, 0, len(fe.Details))
		for k := range fe.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f.Writer, "  %s: %s\n", k, fe.Details[k])
		}
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (f *OutputFormatter) encodeJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// reportFailure writes fe and returns the ExitError that carries its exit
// code.
func reportFailure(out *OutputFormatter, fe *failure.Error) error {
	if err := out.Failure(fe); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return &ExitError{Code: ExitFailure, Message: fe.Message, Err: fe, Reported: true}
}
