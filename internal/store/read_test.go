package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
)

func TestScan_EmptyReturnsNonNil(t *testing.T) {
	s := createTestStore(t)

	entries, err := s.Scan(context.Background(), queryir.Select{})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestScan_OrdersByWriteTs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s,
		createTestEntry(entry.Message, "k", 2, `{}`),
		createTestEntry(entry.Message, "k", 3, `{}`),
		createTestEntry(entry.Message, "k", 1, `{}`),
	)

	desc, err := s.Scan(ctx, queryir.Select{})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 1}, writeTimestamps(desc))

	asc, err := s.Scan(ctx, queryir.Select{Order: queryir.Ascending})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, writeTimestamps(asc))
}

func TestScan_TiesBreakOnInsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s,
		createTestEntry(entry.Message, "k", 5, `{"n":1}`),
		createTestEntry(entry.Message, "k", 5, `{"n":2}`),
	)

	desc, err := s.Scan(ctx, queryir.Select{})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.JSONEq(t, `{"n":2}`, string(desc[0].Payload))
}

func TestScan_FilterAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s,
		createTestEntry(entry.SensorData, "loc", 1, `{}`),
		createTestEntry(entry.SensorData, "loc", 2, `{}`),
		createTestEntry(entry.Message, "loc", 3, `{}`),
		createTestEntry(entry.SensorData, "acc", 4, `{}`),
		createTestEntry(entry.SensorData, "loc", 5, `{}`),
	)

	got, err := s.Scan(ctx, queryir.Select{
		Filter: queryir.AllOf(
			queryir.Eq(queryir.FieldKey, "loc"),
			queryir.Eq(queryir.FieldType, entry.SensorData),
		),
		Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 2}, writeTimestamps(got))
}

func TestScan_LikeOnPayload(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s,
		createTestEntry(entry.Message, "t", 1, `{"transition":"local.transition.exited_geofence"}`),
		createTestEntry(entry.Message, "t", 2, `{"transition":"local.transition.stopped_moving"}`),
	)

	got, ok, err := s.First(ctx, queryir.Select{
		Filter: queryir.Like{Field: queryir.FieldData, Pattern: `%stopped_moving%`},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.WriteTs)
}

func TestFirst_Absent(t *testing.T) {
	s := createTestStore(t)

	_, ok, err := s.First(context.Background(), queryir.Select{Filter: queryir.Eq(queryir.FieldKey, "nope")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLatestDocumentTimestamps(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s,
		createTestEntry(entry.Document, "a", 10, `{}`),
		createTestEntry(entry.Document, "a", 30, `{}`),
		createTestEntry(entry.RwDocument, "a", 40, `{}`),
		createTestEntry(entry.Document, "b", 5, `{}`),
		createTestEntry(entry.RwDocument, "c", 50, `{}`),
	)

	latest, err := s.LatestDocumentTimestamps(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 30, "b": 5}, latest)
}

func TestCountByType(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s,
		createTestEntry(entry.Message, "k", 1, `{}`),
		createTestEntry(entry.Message, "k", 2, `{}`),
		createTestEntry(entry.RwDocument, "k", 3, `{}`),
	)

	counts, err := s.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[entry.Type]int64{
		entry.Message:    2,
		entry.RwDocument: 1,
		entry.Document:   0,
		entry.SensorData: 0,
	}, counts)
}
