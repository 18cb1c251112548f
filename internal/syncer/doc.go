// Package syncer exchanges entries with the server.
//
// A sync round has no session state. It computes the export boundary,
// exports every Message, RwDocument, and SensorData entry written at or
// before it, hands the batch to a transport, clears what was handed over,
// and imports whatever the transport returns.
//
// Boundary: with duty cycling on, the boundary is the write_ts of the most
// recent "stopped moving" transition, so a trip in progress is never split
// across two uploads. Otherwise it is the write_ts of the newest entry.
// entry.NoBoundary means nothing is exportable.
package syncer
