// Package store provides SQLite-backed execution history for the gateway.
//
// Every Execute call can be recorded as one row of the executions table: an
// append-only audit log of what ran, where, as whom, and how it ended.
//
// # Invariants
//
// Append-only
//   - Rows are never updated; a duplicate execution id is silently ignored
//
// Ordering
//   - seq INTEGER is assigned by SQLite on insert and is strictly increasing
//   - Listings order by seq, never by wall-clock timestamps
//
// No credentials
//   - There is no password column; messages are redacted before they reach
//     the store
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Details are stored as canonical JSON (internal/ir) so equal records
// produce byte-identical rows.
package store
