// Package transport moves export batches to the server and brings import
// batches back. The sync engine only sees the Transport interface; it never
// opens connections or parses anything but the record shape.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/roach88/usercache/internal/entry"
)

// Transport delivers export batches and fetches batches to import.
//
// Inbound batches are named by a transport-specific ref. Fetch leaves the
// batch in place; only Ack consumes it, so a batch whose import fails is
// offered again by the next Pending. Retry and backoff are the
// implementation's concern.
type Transport interface {
	Send(ctx context.Context, batch Batch) error
	Pending(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, ref string) ([]entry.Record, error)
	Ack(ctx context.Context, ref string) error
}

// Batch is one export upload.
type Batch struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Records   []entry.Record `json:"records"`
}

// NewBatch wraps records in a batch with a fresh UUIDv7 id.
// UUIDv7 ids sort by creation time, so outbox listings come back in order.
func NewBatch(records []entry.Record) (Batch, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Batch{}, fmt.Errorf("generate batch id: %w", err)
	}
	if records == nil {
		records = []entry.Record{}
	}
	return Batch{ID: id.String(), CreatedAt: time.Now().UTC(), Records: records}, nil
}

// encodeBatch serializes a batch as snappy-compressed JSON.
func encodeBatch(b Batch) ([]byte, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode batch %s: %w", b.ID, err)
	}
	return snappy.Encode(nil, raw), nil
}

// decodeRecords reads a snappy-compressed payload holding either a Batch
// object or a bare JSON array of records, the shape the server sends.
func decodeRecords(data []byte) ([]entry.Record, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("decompress batch: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var records []entry.Record
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return records, nil
	}

	var b Batch
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return b.Records, nil
}
