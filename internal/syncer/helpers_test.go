package syncer

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
	"github.com/roach88/usercache/internal/store"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustAppend(t *testing.T, s *store.Store, typ entry.Type, key string, writeTs float64, data string) {
	t.Helper()
	_, err := s.Append(context.Background(), entry.Entry{
		Metadata: entry.Metadata{
			WriteTs:  writeTs,
			TimeZone: "America/Los_Angeles",
			Type:     typ,
			Key:      key,
			Plugin:   "test",
		},
		Payload: json.RawMessage(data),
	})
	require.NoError(t, err)
}

func transition(t *testing.T, s *store.Store, writeTs float64, name string) {
	t.Helper()
	mustAppend(t, s, entry.Message, "statemachine/transition", writeTs,
		`{"currState":"local.state.ongoing_trip","transition":"`+name+`","ts":1}`)
}

func allEntries(t *testing.T, s *store.Store) []entry.Entry {
	t.Helper()
	rows, err := s.Scan(context.Background(), queryir.Select{Order: queryir.Ascending})
	require.NoError(t, err)
	return rows
}

func recordTimestamps(records []entry.Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Metadata.WriteTs
	}
	return out
}
