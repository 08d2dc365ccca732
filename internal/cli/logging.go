package cli

import (
	"io"
	"log/slog"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// setupLogging installs the default slog logger on w. The driver logs
// through logrus; its output is dropped unless verbose.
func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	if verbose {
		r.Log.SetOutput(w)
	} else {
		r.Log.SetOutput(io.Discard)
	}
}
