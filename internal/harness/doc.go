// Package harness runs gateway scenarios end to end against the driver mock.
//
// A scenario is a list of queries, each with the response the mocked server
// gives, followed by assertions on the execution history. Every step goes
// through the real parser, compiler, executor and normalizer; only the
// connection is replaced.
//
// # Scenario Format
//
//	name: authors_crud
//	description: "Create a table, insert and read back"
//	steps:
//	  - query: db('test').table_create('authors')
//	    respond: {tables_created: 1}
//	    expect: {status: ok, documents: 1}
//	  - query: db('test').table('authors').count()
//	    respond: 1
//	  - query: db('test').table('authors')
//	    dial_error: "rethinkdb: Wrong password"
//	    expect: {status: AUTH_FAILED}
//	assertions:
//	  - type: status_count
//	    status: ok
//	    count: 2
//
// A step fails on the server with server_error, drops its connection with
// connection_closed, or never connects with dial_error. Otherwise respond is
// returned by the mock: a list becomes a stream, anything else an atom.
//
// # Assertion Types
//
//   - status_count: the history holds exactly count executions with status
//   - same_fingerprint: the listed steps (0-based) share a fingerprint
//   - contains_document: a step's result contains a document matching a subset
//
// # Deterministic Testing
//
// Each scenario runs with a fresh in-memory history store, a step clock
// starting at testutil.Epoch and sequential execution ids, so the trace is
// identical across runs and can be compared with golden files.
package harness
