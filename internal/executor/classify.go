package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlgate/internal/failure"
)

// authMarkers are fragments of server and driver messages for refused
// credentials. A cluster dial can report an auth failure as a plain
// connection error, so the message is checked as well as the type.
var authMarkers = []string{
	"wrong password",
	"unknown user",
	"authentication",
}

// classifyDial maps a dial error to a failure kind.
func classifyDial(ctx context.Context, err error) *failure.Error {
	if fe := contextFailure(ctx, err); fe != nil {
		return fe
	}
	if isAuth(err) {
		return failure.Wrap(failure.KindAuthFailed, err, "")
	}
	return failure.Wrap(failure.KindConnectionFailed, err, "")
}

// classifyRun maps an error from running a term or draining its cursor.
// Credentials are checked during the handshake, so only a typed driver
// auth error counts here; message markers would misread server errors
// that merely name a table or field such as "authentication".
func classifyRun(ctx context.Context, err error) *failure.Error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe
	}
	if cf := contextFailure(ctx, err); cf != nil {
		return cf
	}
	var authErr r.RQLAuthError
	if errors.As(err, &authErr) {
		return failure.Wrap(failure.KindAuthFailed, err, "")
	}

	var connErr r.RQLConnectionError
	var netErr net.Error
	if errors.Is(err, r.ErrConnectionClosed) || errors.As(err, &connErr) || errors.As(err, &netErr) {
		return failure.Wrap(failure.KindConnectionFailed, err, "")
	}
	return failure.Wrap(failure.KindServerRejected, err, "")
}

// contextFailure returns a Timeout failure when the call deadline or a
// cancellation caused err, and nil otherwise.
func contextFailure(ctx context.Context, err error) *failure.Error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return failure.Wrap(failure.KindTimeout, err, "cancelled")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return failure.Wrap(failure.KindTimeout, err, "deadline exceeded")
	case errors.Is(err, r.ErrQueryTimeout):
		return failure.Wrap(failure.KindTimeout, err, "")
	}
	return nil
}

func isAuth(err error) bool {
	var authErr r.RQLAuthError
	if errors.As(err, &authErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// panicError turns a recovered driver panic into an error.
func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("driver panic: %w", err)
	}
	return fmt.Errorf("driver panic: %v", rec)
}
