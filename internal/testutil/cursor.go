package testutil

import (
	"reflect"
	"sync"
)

// FakeCursor yields Rows in order, then reports Fail (if set).
//
// When FailAfter is positive and Fail is set, the cursor stops after that
// many rows and reports Fail, simulating a stream that breaks mid-drain.
type FakeCursor struct {
	Rows      []any
	Fail      error
	FailAfter int

	mu     sync.Mutex
	pos    int
	err    error
	closed bool
}

// NewFakeCursor creates a cursor over rows.
func NewFakeCursor(rows ...any) *FakeCursor {
	return &FakeCursor{Rows: rows}
}

// Next decodes the next row into dest, which must be a non-nil pointer.
func (c *FakeCursor) Next(dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.err != nil {
		return false
	}
	if c.Fail != nil && c.FailAfter > 0 && c.pos >= c.FailAfter {
		c.err = c.Fail
		return false
	}
	if c.pos >= len(c.Rows) {
		if c.Fail != nil {
			c.err = c.Fail
		}
		return false
	}

	row := c.Rows[c.pos]
	c.pos++
	target := reflect.ValueOf(dest).Elem()
	if row == nil {
		target.Set(reflect.Zero(target.Type()))
	} else {
		target.Set(reflect.ValueOf(row))
	}
	return true
}

// Err returns the error that ended the stream, if any.
func (c *FakeCursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close marks the cursor closed. Close is idempotent.
func (c *FakeCursor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *FakeCursor) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
