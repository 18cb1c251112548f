package entry

import (
	"encoding/json"
	"fmt"
)

// Type tags the kind of an entry.
type Type string

const (
	// SensorData is a raw reading from a sensor channel.
	SensorData Type = "sensor-data"

	// Message is an inter-component message.
	Message Type = "message"

	// Document is a derived, immutable snapshot of a mutable value.
	Document Type = "document"

	// RwDocument is a directly written "current state" slot. It is
	// superseded by any later Document with the same key.
	RwDocument Type = "rw-document"
)

// AllTypes lists every entry type in a stable order.
var AllTypes = []Type{SensorData, Message, Document, RwDocument}

// ExportTypes are the types that leave the device during sync.
// Documents are computed views and are never exported.
var ExportTypes = []Type{Message, RwDocument, SensorData}

// Valid reports whether t is one of the known entry types.
func (t Type) Valid() bool {
	switch t {
	case SensorData, Message, Document, RwDocument:
		return true
	}
	return false
}

// IsDocument reports whether t participates in document resolution.
func (t Type) IsDocument() bool {
	return t == Document || t == RwDocument
}

// ParseType converts a type tag to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entry type %q", s)
	}
	return t, nil
}

// Metadata is everything about an entry except its payload.
// It is the "metadata" half of an exported Record.
type Metadata struct {
	WriteTs  float64 `json:"write_ts"`
	ReadTs   float64 `json:"read_ts"`
	TimeZone string  `json:"time_zone"`
	Type     Type    `json:"type"`
	Key      string  `json:"key"`
	Plugin   string  `json:"plugin"`
}

// Entry is the single stored unit.
// ID is assigned by the store on append and is not part of the metadata.
type Entry struct {
	ID int64 `json:"id,omitempty"`
	Metadata
	Payload json.RawMessage `json:"data"`
}

// Record pairs entry metadata with a raw payload for sync.
//
// Data is kept raw so the server's JSON survives a round trip unchanged,
// whether it is an object or an array.
type Record struct {
	Metadata Metadata        `json:"metadata"`
	Data     json.RawMessage `json:"data"`
}

// ToRecord converts an entry into its sync representation.
func (e Entry) ToRecord() Record {
	return Record{Metadata: e.Metadata, Data: e.Payload}
}

// ToEntry converts a record back into an entry, preserving every metadata field.
func (r Record) ToEntry() Entry {
	return Entry{Metadata: r.Metadata, Payload: r.Data}
}
