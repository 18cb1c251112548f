package usercache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
	"github.com/roach88/usercache/internal/store"
	"github.com/roach88/usercache/internal/testutil"
)

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// createTestCache opens a cache on a fresh store with a deterministic clock.
func createTestCache(t *testing.T, opts ...Option) (*Cache, *testutil.DeterministicClock) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clk := testutil.NewDeterministicClock(1)
	opts = append([]Option{WithClock(clk), WithPlugin("test")}, opts...)
	return New(s, opts...), clk
}

// putAt writes v at exactly ts.
func putAt(t *testing.T, c *Cache, clk *testutil.DeterministicClock, ts float64, typ entry.Type, key string, v any) {
	t.Helper()
	clk.Set(ts)
	_, err := c.Put(context.Background(), typ, key, v)
	require.NoError(t, err)
}

// rowsFor returns the stored entries for key, oldest first.
func rowsFor(t *testing.T, c *Cache, key string) []entry.Entry {
	t.Helper()
	rows, err := c.Store().Scan(context.Background(), queryir.Select{
		Filter: queryir.Eq(queryir.FieldKey, key),
		Order:  queryir.Ascending,
	})
	require.NoError(t, err)
	return rows
}

func describe(entries []entry.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Type) + "@" + formatTs(e.WriteTs)
	}
	return out
}

func formatTs(ts float64) string {
	b, _ := entry.EncodePayload("", ts)
	return string(b)
}
