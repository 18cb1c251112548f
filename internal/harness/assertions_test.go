package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/store"
	"github.com/roach88/usercache/internal/syncer"
	"github.com/roach88/usercache/internal/testutil"
	"github.com/roach88/usercache/internal/usercache"
)

func newAssertionContext(t *testing.T) *AssertionContext {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return &AssertionContext{
		Ctx:    context.Background(),
		Cache:  usercache.New(st, usercache.WithClock(testutil.NewDeterministicClock(1))),
		Engine: syncer.New(st, syncer.DutyCycling(false)),
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertCount, Expected: "2 entries", Actual: "1 entries"}
	assert.Equal(t, "Assertion failed: count\n  Expected: 2 entries\n  Actual: 1 entries", err.Error())
}

func TestEvaluateAssertions_EmptyStore(t *testing.T) {
	actx := newAssertionContext(t)

	errs := EvaluateAssertions([]Assertion{
		{Type: AssertCount, Count: intPtr(0)},
		{Type: AssertBoundary, Value: floatPtr(entry.NoBoundary)},
		{Type: AssertExportCount, Count: intPtr(0)},
		{Type: AssertDocument, Key: "missing", Absent: true},
		{Type: AssertLastValues, Key: "k", EntryType: entry.Message, N: 3, Expect: []any{}},
	}, actx)
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	actx := newAssertionContext(t)
	_, err := actx.Cache.PutDocument(actx.Ctx, "trips", map[string]any{"n": 1})
	require.NoError(t, err)
	_, err = actx.Cache.PutReadWriteDocument(actx.Ctx, "consent", map[string]any{"ok": true})
	require.NoError(t, err)

	errs := EvaluateAssertions([]Assertion{
		{Type: AssertCount, Count: intPtr(5)},
		{Type: AssertDocument, Key: "trips", Absent: true},
		{Type: AssertDocument, Key: "other", Expect: map[string]any{}},
		{Type: AssertExportExcludesType, EntryType: entry.RwDocument},
		{Type: AssertBoundary, Value: floatPtr(99)},
		{Type: "bogus"},
	}, actx)

	require.Len(t, errs, 6)
	assert.Contains(t, errs[0], "5 entries")
	assert.Contains(t, errs[1], `{"n":1}`)
	assert.Contains(t, errs[2], `no document for "other"`)
	assert.Contains(t, errs[3], "rw-document")
	assert.Contains(t, errs[4], "Expected: 99")
	assert.Contains(t, errs[5], "unknown assertion type")
}

func TestEvaluateAssertions_CountFilters(t *testing.T) {
	actx := newAssertionContext(t)
	for _, key := range []string{"a", "a", "b"} {
		_, err := actx.Cache.PutMessage(actx.Ctx, key, map[string]any{})
		require.NoError(t, err)
	}
	_, err := actx.Cache.PutSensorData(actx.Ctx, "a", map[string]any{})
	require.NoError(t, err)

	errs := EvaluateAssertions([]Assertion{
		{Type: AssertCount, Key: "a", Count: intPtr(3)},
		{Type: AssertCount, Key: "a", EntryType: entry.Message, Count: intPtr(2)},
		{Type: AssertCount, EntryType: entry.Message, Count: intPtr(3)},
	}, actx)
	assert.Empty(t, errs)
}

func TestJSONEqual(t *testing.T) {
	assert.True(t, jsonEqual(map[string]any{"n": 1}, map[string]any{"n": 1.0}))
	assert.True(t, jsonEqual([]any{map[string]any{"a": "b"}}, []map[string]string{{"a": "b"}}))
	assert.False(t, jsonEqual(map[string]any{"n": 1}, map[string]any{"n": 2}))
}
