package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlgate/internal/executor"
	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/queryir"
	"github.com/roach88/reqlgate/internal/queryreql"
	"github.com/roach88/reqlgate/internal/reql"
	"github.com/roach88/reqlgate/internal/store"
	"github.com/roach88/reqlgate/internal/testutil"
)

// stepTimeout bounds each step. The mock answers immediately.
const stepTimeout = 5 * time.Second

// Params is the connection every scenario step uses.
var Params = executor.ConnectionParams{
	Host:     "db.test",
	Port:     executor.DefaultPort,
	User:     "admin",
	Password: "harness-secret",
}

// Harness runs scenario steps with deterministic ids and clock.
type Harness struct {
	store    *store.Store
	compiler *queryreql.Compiler
	clock    *testutil.StepClock
	ids      *testutil.SequenceIDGenerator
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create a fresh in-memory history store
// 2. Execute each step through the executor with a mocked connection
// 3. Check expect clauses
// 4. Evaluate assertions against the history
//
// The returned error is for harness failures (store setup); scenario
// failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		compiler: queryreql.NewCompiler(),
		clock:    testutil.NewStepClock(testutil.Epoch, time.Millisecond),
		ids:      testutil.NewSequenceIDGenerator("exec"),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		trace := h.runStep(ctx, i, step)
		result.Trace = append(result.Trace, trace)
		if step.Expect != nil {
			checkExpect(result, i, step.Expect, trace)
		}
	}

	counts, err := st.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}
	result.Counts = counts

	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(a, result); err != nil {
			result.AddError(err.Error())
		}
	}

	return result, nil
}

func (h *Harness) runStep(ctx context.Context, index int, step Step) StepTrace {
	trace := StepTrace{Step: index, Query: step.Query}

	d, err := reql.Parse(step.Query)
	if err != nil {
		return failed(trace, err)
	}
	trace.Query = d.String()
	trace.Fingerprint, _ = queryir.Fingerprint(d)

	term, _, err := h.compiler.Compile(d)
	if err != nil {
		return failed(trace, err)
	}
	trace.Term = term.String()

	mock := r.NewMock()
	switch {
	case step.ServerError != "":
		mock.On(term).Return(nil, errors.New(step.ServerError))
	case step.ConnectionClosed:
		mock.On(term).Return(nil, r.ErrConnectionClosed)
	default:
		mock.On(term).Return(step.Respond, nil)
	}

	dialer := executor.DialerFunc(func(context.Context, executor.ConnectionParams) (executor.Conn, error) {
		if step.DialError != "" {
			return nil, errors.New(step.DialError)
		}
		return testutil.NewMockConn(mock), nil
	})

	ex := executor.New(
		executor.WithDialer(dialer),
		executor.WithRecorder(h.store),
		executor.WithClock(h.clock.Now),
		executor.WithIDGenerator(h.ids),
		executor.WithLogger(h.logger),
	)

	switch out := ex.Execute(ctx, Params, d, stepTimeout).(type) {
	case executor.Success:
		trace.Status = store.StatusOK
		trace.Documents = out.Result.Native()
	case executor.Failure:
		trace.Status = string(out.Err.Kind)
		trace.Message = out.Err.Message
	}
	return trace
}

func failed(trace StepTrace, err error) StepTrace {
	trace.Status = string(failure.KindOf(err))
	var fe *failure.Error
	if errors.As(err, &fe) {
		trace.Message = fe.Message
	} else {
		trace.Message = err.Error()
	}
	return trace
}

func checkExpect(result *Result, index int, expect *Expect, trace StepTrace) {
	if trace.Status != expect.Status {
		result.AddError(fmt.Sprintf("steps[%d]: expected status %s, got %s (%s)",
			index, expect.Status, trace.Status, trace.Message))
		return
	}
	if expect.Documents != nil && len(trace.Documents) != *expect.Documents {
		result.AddError(fmt.Sprintf("steps[%d]: expected %d documents, got %d",
			index, *expect.Documents, len(trace.Documents)))
	}
	if expect.Message != "" && !strings.Contains(trace.Message, expect.Message) {
		result.AddError(fmt.Sprintf("steps[%d]: expected message containing %q, got %q",
			index, expect.Message, trace.Message))
	}
}
