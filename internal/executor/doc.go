// Package executor runs query descriptors against a RethinkDB server.
//
// ARCHITECTURE:
//
//	Execute(ctx, params, descriptor, timeout)
//	    ├─ context.WithTimeout          whole-call deadline
//	    ├─ queryreql.Compile            descriptor -> driver term
//	    ├─ Dialer.Dial                  one scoped connection
//	    ├─ term.Run + result.Normalize  drain the cursor
//	    └─ Recorder.RecordExecution     optional history row
//
// Every call owns exactly one connection. It is closed on every exit path,
// after the cursor. A dial that completes after the deadline is handed to a
// reaper goroutine that closes it.
//
// Execute never returns an error and never panics: the result is an Outcome,
// either Success or Failure. Failure messages are redacted of the password
// before they leave the package.
package executor
