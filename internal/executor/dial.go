package executor

import (
	"context"
	"time"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// Conn is one open connection: something a term can run on and that can be
// closed.
type Conn interface {
	r.QueryExecutor
	Close() error
}

// Dialer opens a connection for one call.
type Dialer interface {
	Dial(ctx context.Context, params ConnectionParams) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, params ConnectionParams) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, params ConnectionParams) (Conn, error) {
	return f(ctx, params)
}

// SessionDialer dials a single-connection rethinkdb-go session.
//
// The session never grows past one connection, never retries and never
// discovers other cluster members.
type SessionDialer struct {
	// DefaultTimeout bounds the dial when ctx carries no deadline.
	DefaultTimeout time.Duration
}

// Dial implements Dialer.
func (d SessionDialer) Dial(ctx context.Context, params ConnectionParams) (Conn, error) {
	timeout := d.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	session, err := r.Connect(r.ConnectOpts{
		Address:       params.Address(),
		Username:      params.User,
		Password:      params.Password.Reveal(),
		Timeout:       timeout,
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		InitialCap:    1,
		MaxOpen:       1,
		NumRetries:    0,
		DiscoverHosts: false,
	})
	if err != nil {
		// Connect returns a session even on failure; it holds nothing open.
		return nil, err
	}
	return sessionConn{session}, nil
}

// sessionConn narrows Session.Close to the Conn signature.
type sessionConn struct {
	*r.Session
}

func (c sessionConn) Close() error {
	return c.Session.Close()
}

type dialResult struct {
	conn Conn
	err  error
}

// dialWithin races the dialer against ctx. If ctx ends first, a reaper
// goroutine waits for the dial and closes whatever it produced.
func dialWithin(ctx context.Context, dialer Dialer, params ConnectionParams) (Conn, error) {
	done := make(chan dialResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- dialResult{err: panicError(rec)}
			}
		}()
		conn, err := dialer.Dial(ctx, params)
		done <- dialResult{conn: conn, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && res.conn != nil {
			res.conn.Close()
			res.conn = nil
		}
		return res.conn, res.err
	case <-ctx.Done():
		go reap(done)
		return nil, ctx.Err()
	}
}

func reap(done <-chan dialResult) {
	res := <-done
	if res.conn != nil {
		res.conn.Close()
	}
}
