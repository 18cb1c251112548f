// Package harness runs user cache conformance scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: superseded_rw_document
//	description: "A later Document makes earlier RwDocuments obsolete"
//	duty_cycling: false
//	steps:
//	  - put: { type: rw-document, key: loc, at: 10, data: { lat: 1 } }
//	  - put: { type: document, key: loc, at: 20, data: { lat: 2 } }
//	  - mark_read: { key: loc, at: 25 }
//	  - clear: { field: write_ts, start: 0, end: 100 }
//	  - export: true
//	  - import: [ { type: document, key: trip, at: 5, data: {} } ]
//	  - sync: { incoming: [ ... ] }
//	  - clear_all: true
//	assertions:
//	  - type: document
//	    key: loc
//	    expect: { lat: 2 }
//	  - type: count
//	    entry_type: rw-document
//	    count: 0
//
// # Assertion Types
//
//   - document: the current document for key equals expect, or is absent
//     (absent: true); with updated: true the has-changed query is used
//   - count: number of live entries, optionally filtered by key and entry_type
//   - boundary: the export boundary equals value (-1 for none)
//   - export_count: an export taken now returns count records
//   - export_excludes_type: an export taken now has no entry_type records
//   - last_values: the n most recent payloads for key/entry_type equal expect
//
// # Deterministic Testing
//
// Every scenario runs on a fresh in-memory store with a deterministic clock
// that starts at 1 and advances one second per write. Steps may pin the
// clock with at. The trace records every step and its outcome and is what
// RunWithGolden compares against testdata/golden.
package harness
