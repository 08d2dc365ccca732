package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/queryir"
	"github.com/roach88/reqlgate/internal/queryreql"
	"github.com/roach88/reqlgate/internal/result"
	"github.com/roach88/reqlgate/internal/store"
)

// DefaultTimeout applies when Execute is called with a non-positive timeout.
const DefaultTimeout = 30 * time.Second

// Recorder receives one history record per Execute call.
// *store.Store implements it.
type Recorder interface {
	RecordExecution(ctx context.Context, e store.Execution) error
}

// Executor runs descriptors against a server.
//
// Thread-safety: Executor holds no per-call state and is safe for concurrent
// use. Each Execute call owns its own connection.
type Executor struct {
	logger   *slog.Logger
	dialer   Dialer
	compiler *queryreql.Compiler
	now      func() time.Time
	ids      IDGenerator
	recorder Recorder
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDialer replaces the production SessionDialer.
func WithDialer(d Dialer) Option {
	return func(e *Executor) {
		if d != nil {
			e.dialer = d
		}
	}
}

// WithClock sets the time source used for durations and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets the generator for execution ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Executor) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithRecorder enables history recording.
func WithRecorder(rec Recorder) Option {
	return func(e *Executor) {
		e.recorder = rec
	}
}

// New creates an Executor with a SessionDialer and the given options.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger:   slog.Default(),
		dialer:   SessionDialer{},
		compiler: queryreql.NewCompiler(),
		now:      time.Now,
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs d against the server named by params.
//
// The whole call, dial included, is bounded by timeout (DefaultTimeout when
// timeout <= 0). Exactly one connection is opened and it is closed before
// Execute returns. Execute never panics; every error is reported as a
// Failure whose message has the password removed.
func (e *Executor) Execute(ctx context.Context, params ConnectionParams, d queryir.Descriptor, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := e.now()
	fingerprint, err := queryir.Fingerprint(d)
	if err != nil {
		e.logger.Debug("descriptor has no fingerprint", slog.String("error", err.Error()))
	}
	log := e.logger.With(
		slog.String("fingerprint", fingerprint),
		slog.Any("params", params),
		slog.String("database", d.Database),
	)

	docs, fe := e.execute(callCtx, log, params, d)
	elapsed := e.now().Sub(started)

	var out Outcome
	if fe != nil {
		fe = failure.RedactError(fe, params.Password.Reveal())
		log.Debug("query failed",
			slog.String("kind", string(fe.Kind)),
			slog.String("error", fe.Message),
			slog.Duration("duration", elapsed),
		)
		out = Failure{Err: fe}
	} else {
		log.Debug("query completed",
			slog.Int("documents", len(docs)),
			slog.Duration("duration", elapsed),
		)
		out = Success{Result: docs}
	}

	e.record(ctx, params, d, fingerprint, started, elapsed, out)
	return out
}

func (e *Executor) execute(ctx context.Context, log *slog.Logger, params ConnectionParams, d queryir.Descriptor) (docs result.QueryResult, fe *failure.Error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("driver panic recovered", slog.Any("panic", rec))
			docs, fe = nil, failure.Wrap(failure.KindServerRejected, panicError(rec), "")
		}
	}()

	if err := params.Validate(); err != nil {
		return nil, asFailure(err, failure.KindConnectionFailed)
	}

	term, stage, err := e.compiler.Compile(d)
	if err != nil {
		return nil, asFailure(err, failure.KindUnsupportedOperation)
	}

	log.Debug("dialing", slog.String("address", params.Address()))
	conn, err := dialWithin(ctx, e.dialer, params)
	if err != nil {
		return nil, classifyDial(ctx, err).With("address", params.Address())
	}
	defer conn.Close()

	log.Debug("running",
		slog.String("stage", stage.String()),
		slog.Bool("streams", stage.Streams()),
	)
	cur, err := term.Run(conn, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, classifyRun(ctx, err)
	}
	defer cur.Close()

	docs, err = result.Normalize(ctx, cur)
	if err != nil {
		return nil, classifyRun(ctx, err)
	}
	return docs, nil
}

// record sends the call to the recorder, if any. Recording uses the
// caller's context without its cancellation so a timed-out call is still
// written. A recorder error is logged and otherwise ignored.
func (e *Executor) record(ctx context.Context, params ConnectionParams, d queryir.Descriptor, fingerprint string, started time.Time, elapsed time.Duration, out Outcome) {
	if e.recorder == nil {
		return
	}

	rec := store.Execution{
		ID:          e.ids.Generate(),
		Fingerprint: fingerprint,
		Query:       d.String(),
		Database:    d.Database,
		Address:     params.Address(),
		User:        params.User,
		DurationMS:  elapsed.Milliseconds(),
		StartedAt:   started.UTC(),
	}
	switch o := out.(type) {
	case Success:
		rec.Status = store.StatusOK
		rec.Documents = len(o.Result)
		if hash, err := result.Hash(o.Result); err == nil {
			rec.ResultHash = hash
		}
	case Failure:
		rec.Status = string(o.Err.Kind)
		rec.Message = o.Err.Message
		rec.Details = o.Err.Details
	}

	if err := e.recorder.RecordExecution(context.WithoutCancel(ctx), rec); err != nil {
		e.logger.Warn("failed to record execution",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}

// asFailure returns err as a *failure.Error, wrapping it with kind if it is
// not one already.
func asFailure(err error, kind failure.Kind) *failure.Error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe
	}
	return failure.Wrap(kind, err, "")
}
