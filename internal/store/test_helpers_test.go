package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/usercache/internal/entry"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntry creates an entry with minimal required fields.
func createTestEntry(typ entry.Type, key string, writeTs float64, data string) entry.Entry {
	return entry.Entry{
		Metadata: entry.Metadata{
			WriteTs:  writeTs,
			TimeZone: "America/Los_Angeles",
			Type:     typ,
			Key:      key,
			Plugin:   "test",
		},
		Payload: json.RawMessage(data),
	}
}

// mustAppend appends entries and fails the test on error.
func mustAppend(t *testing.T, s *Store, entries ...entry.Entry) {
	t.Helper()
	for _, e := range entries {
		_, err := s.Append(context.Background(), e)
		require.NoError(t, err)
	}
}

// writeTimestamps extracts write_ts values in order.
func writeTimestamps(entries []entry.Entry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.WriteTs
	}
	return out
}
