// Package usercache is the application-facing cache over the entry store.
//
// A Cache stamps new entries with the clock and timezone, resolves the
// current value of mutable documents, answers time-window and last-N
// queries, and prunes obsolete and expired entries.
//
// Document resolution: the current value of a key is the Document or
// RwDocument entry with the greatest write_ts. The resolver does not look at
// the type to pick a winner; writers must stamp derived entries strictly
// after their source.
//
// Undecodable payloads: queries skip any stored payload that cannot be
// decoded into the requested shape, log it at error level, count it in
// metrics, and return the remaining elements without an error.
package usercache
