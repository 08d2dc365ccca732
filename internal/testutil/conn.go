package testutil

import (
	"sync/atomic"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// MockConn wraps the driver mock as a closable connection and counts
// Close calls, so tests can assert that no handle outlives a call.
type MockConn struct {
	*r.Mock
	closes atomic.Int32
}

// NewMockConn wraps mock. A nil mock creates an empty one.
func NewMockConn(mock *r.Mock) *MockConn {
	if mock == nil {
		mock = r.NewMock()
	}
	return &MockConn{Mock: mock}
}

// Close records the call.
func (c *MockConn) Close() error {
	c.closes.Add(1)
	return nil
}

// Closed reports whether Close was called at least once.
func (c *MockConn) Closed() bool {
	return c.closes.Load() > 0
}

// CloseCount returns the number of Close calls.
func (c *MockConn) CloseCount() int {
	return int(c.closes.Load())
}
