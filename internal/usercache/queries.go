package usercache

import (
	"context"
	"fmt"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
)

// Entries returns the raw entries for key and typ whose selected timestamp
// lies in [tq.Start, tq.End], newest first.
func (c *Cache) Entries(ctx context.Context, key string, typ entry.Type, tq entry.TimeQuery) ([]entry.Entry, error) {
	if err := tq.Validate(); err != nil {
		return nil, err
	}
	return c.store.Scan(ctx, queryir.Select{
		Filter: queryir.AllOf(
			queryir.Eq(queryir.FieldKey, entry.NormalizeKey(key)),
			queryir.Eq(queryir.FieldType, typ),
			queryir.Between(string(tq.Field), tq.Start, tq.End, false),
		),
		Order: queryir.Descending,
	})
}

// LastEntries returns the n most recent raw entries for key and typ, newest
// first. Fewer than n are returned when fewer exist; n <= 0 returns none.
func (c *Cache) LastEntries(ctx context.Context, key string, typ entry.Type, n int) ([]entry.Entry, error) {
	if n <= 0 {
		return []entry.Entry{}, nil
	}
	return c.store.Scan(ctx, queryir.Select{
		Filter: queryir.AllOf(
			queryir.Eq(queryir.FieldKey, entry.NormalizeKey(key)),
			queryir.Eq(queryir.FieldType, typ),
		),
		Order: queryir.Descending,
		Limit: n,
	})
}

// ValuesForInterval decodes the payloads of Entries into T.
// Payloads that do not decode are skipped.
func ValuesForInterval[T any](ctx context.Context, c *Cache, key string, typ entry.Type, tq entry.TimeQuery) ([]T, error) {
	entries, err := c.Entries(ctx, key, typ, tq)
	if err != nil {
		return nil, fmt.Errorf("values for interval %q: %w", key, err)
	}
	return decodeAll[T](c, entries), nil
}

// LastValues decodes the payloads of LastEntries into T.
// Payloads that do not decode are skipped.
func LastValues[T any](ctx context.Context, c *Cache, key string, typ entry.Type, n int) ([]T, error) {
	entries, err := c.LastEntries(ctx, key, typ, n)
	if err != nil {
		return nil, fmt.Errorf("last values %q: %w", key, err)
	}
	return decodeAll[T](c, entries), nil
}

// MessagesForInterval returns Message payloads for key in the interval.
func MessagesForInterval[T any](ctx context.Context, c *Cache, key string, tq entry.TimeQuery) ([]T, error) {
	return ValuesForInterval[T](ctx, c, key, entry.Message, tq)
}

// SensorDataForInterval returns SensorData payloads for key in the interval.
func SensorDataForInterval[T any](ctx context.Context, c *Cache, key string, tq entry.TimeQuery) ([]T, error) {
	return ValuesForInterval[T](ctx, c, key, entry.SensorData, tq)
}

// LastMessages returns the n most recent Message payloads for key.
func LastMessages[T any](ctx context.Context, c *Cache, key string, n int) ([]T, error) {
	return LastValues[T](ctx, c, key, entry.Message, n)
}

// LastSensorData returns the n most recent SensorData payloads for key.
func LastSensorData[T any](ctx context.Context, c *Cache, key string, n int) ([]T, error) {
	return LastValues[T](ctx, c, key, entry.SensorData, n)
}

func decodeAll[T any](c *Cache, entries []entry.Entry) []T {
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := entry.DecodePayload(e, &v); err != nil {
			c.skip(err)
			continue
		}
		out = append(out, v)
	}
	return out
}
