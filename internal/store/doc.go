// Package store provides SQLite-backed durable storage for the user cache.
//
// The store is an append-oriented table of typed, timestamped entries:
//   - usercache: the live entry table
//   - usercache_error: rows whose payload failed to parse during export
//
// # Patterns
//
// Single-statement atomicity:
//   - Append, Scan, UpdateReadTimestamp, DeleteWhere and DeleteAll each run
//     as one SQL statement; no caller can observe a partial row.
//   - Multi-step operations use InTx, which hands the callback a Store bound
//     to one transaction and commits or rolls back on every exit path.
//
// Deterministic ordering:
//   - Every scan orders by write_ts with id as the tiebreaker.
//   - Scans over an empty result return an empty, non-nil slice.
//
// Parameterized SQL:
//   - Filters are described with queryir and compiled by querysql; values are
//     always bound with ? placeholders.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
