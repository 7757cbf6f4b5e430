// Package store provides SQLite-backed history of case outcomes.
//
// Each case run is one row in runs, identified by a UUIDv7, with one row in
// checks per sub-check verdict.
//
// # Ordering
//
//   - Runs are ordered by started_seq, a logical counter, never by timestamps
//   - Queries use ORDER BY started_seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: checks rows are removed with their run
package store
