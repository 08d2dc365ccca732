// Package failure defines the error taxonomy shared by the parser, the
// executor and the normalizer.
//
// Every error that crosses a component boundary is a *Error carrying a Kind.
// Callers branch on the kind with KindOf or the IsXxx helpers, which use
// errors.As and therefore see through wrapping.
package failure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind categorizes gateway errors.
type Kind string

const (
	// KindMalformedQuery indicates the query text is not a db-rooted REQL chain.
	KindMalformedQuery Kind = "MALFORMED_QUERY"

	// KindUnsupportedOperation indicates an operation outside the supported set,
	// bad arguments, or an operation used where the chain cannot accept it.
	KindUnsupportedOperation Kind = "UNSUPPORTED_OPERATION"

	// KindAuthFailed indicates the server refused the credentials.
	KindAuthFailed Kind = "AUTH_FAILED"

	// KindConnectionFailed indicates the server could not be reached or the
	// connection dropped.
	KindConnectionFailed Kind = "CONNECTION_FAILED"

	// KindTimeout indicates the call deadline expired or the call was cancelled.
	KindTimeout Kind = "TIMEOUT"

	// KindServerRejected indicates the server refused the query.
	KindServerRejected Kind = "SERVER_REJECTED"

	// KindStreamInterrupted indicates a result stream failed mid-drain.
	KindStreamInterrupted Kind = "STREAM_INTERRUPTED"
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindMalformedQuery,
	KindUnsupportedOperation,
	KindAuthFailed,
	KindConnectionFailed,
	KindTimeout,
	KindServerRejected,
	KindStreamInterrupted,
}

// Retryable reports whether a caller may retry an operation that failed with
// this kind. The gateway itself never retries.
func (k Kind) Retryable() bool {
	return k == KindConnectionFailed || k == KindTimeout
}

// Error is a categorized gateway error.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Message is a human-readable description. For server and driver errors
	// it is the original message, redacted of credentials.
	Message string

	// Details contains additional context (operation name, position, address).
	Details map[string]string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Details[k]
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(parts, ", "))
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind, so callers can write
// errors.Is(err, &failure.Error{Kind: failure.KindTimeout}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// With returns a copy of e with an extra detail attached.
func (e *Error) With(key, value string) *Error {
	out := *e
	out.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around err. The message is err's
// text unless a non-empty message is supplied.
func Wrap(kind Kind, err error, message string) *Error {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsParseError reports whether err came from the parser. Parse errors are
// never retried.
func IsParseError(err error) bool {
	k := KindOf(err)
	return k == KindMalformedQuery || k == KindUnsupportedOperation
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	return KindOf(err) == KindAuthFailed
}

// IsRetryable reports whether err may be retried by the caller.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}
