package executor

import (
	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/result"
)

// Outcome is the result of one Execute call: Success or Failure, never both.
//
// This is a sealed interface - only types in this package implement it.
type Outcome interface {
	// OK reports whether the call succeeded.
	OK() bool

	outcome()
}

// Success carries the normalized documents of a successful call.
// Result is never nil.
type Success struct {
	Result result.QueryResult
}

func (Success) OK() bool { return true }
func (Success) outcome() {}

// Failure carries the categorized, redacted error of a failed call.
type Failure struct {
	Err *failure.Error
}

func (Failure) OK() bool { return false }
func (Failure) outcome() {}

func (f Failure) Error() string { return f.Err.Error() }
