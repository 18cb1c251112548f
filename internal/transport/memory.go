package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/usercache/internal/entry"
)

// Memory is an in-process transport. Sent batches are kept for inspection;
// queued record sets stay pending until acknowledged.
type Memory struct {
	mu      sync.Mutex
	sent    []Batch
	seq     int
	pending []inbound
	sendErr error
}

type inbound struct {
	ref     string
	records []entry.Record
}

// NewMemory creates an empty in-memory transport.
func NewMemory() *Memory {
	return &Memory{}
}

// Send records the batch, or returns the error set by FailSends.
func (m *Memory) Send(_ context.Context, batch Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, batch)
	return nil
}

// Pending returns the refs of queued record sets, oldest first.
func (m *Memory) Pending(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]string, len(m.pending))
	for i, in := range m.pending {
		refs[i] = in.ref
	}
	return refs, nil
}

// Fetch returns the records queued under ref.
func (m *Memory) Fetch(_ context.Context, ref string) ([]entry.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.pending {
		if in.ref == ref {
			out := make([]entry.Record, len(in.records))
			copy(out, in.records)
			return out, nil
		}
	}
	return nil, fmt.Errorf("unknown inbound ref %q", ref)
}

// Ack drops the record set queued under ref.
func (m *Memory) Ack(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, in := range m.pending {
		if in.ref == ref {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("unknown inbound ref %q", ref)
}

// Queue adds records as one inbound set and returns its ref.
func (m *Memory) Queue(records ...entry.Record) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := fmt.Sprintf("mem-%06d", m.seq)
	m.pending = append(m.pending, inbound{ref: ref, records: records})
	return ref
}

// Sent returns a copy of every batch sent so far.
func (m *Memory) Sent() []Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Batch, len(m.sent))
	copy(out, m.sent)
	return out
}

// FailSends makes every later Send return err. Pass nil to recover.
func (m *Memory) FailSends(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}
