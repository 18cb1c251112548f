// Package entry provides the data model for the user cache.
//
// This package contains type definitions and payload helpers only. All other
// internal packages import entry; entry imports nothing internal.
//
// Key design constraints:
//   - An Entry is immutable once written, except for ReadTs
//   - Timestamps are float seconds since the epoch (write_ts, read_ts)
//   - Payloads are opaque JSON; the cache never inspects their structure
//   - Type tags use the on-disk strings: sensor-data, message, document, rw-document
//   - All JSON tags use snake_case
package entry
