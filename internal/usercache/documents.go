package usercache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/clock"
	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
)

var documentTypes = []any{string(entry.Document), string(entry.RwDocument)}

// latestDocument returns the Document or RwDocument with the greatest
// write_ts for key.
func (c *Cache) latestDocument(ctx context.Context, key string) (entry.Entry, bool, error) {
	return c.store.First(ctx, queryir.Select{
		Filter: queryir.AllOf(
			queryir.Eq(queryir.FieldKey, entry.NormalizeKey(key)),
			queryir.In{Field: queryir.FieldType, Values: documentTypes},
		),
		Order: queryir.Descending,
	})
}

// GetDocument decodes the current value of the document key into v.
// Returns false if no Document or RwDocument exists for key.
//
// A stored payload that cannot be decoded into v is returned as an
// *entry.Error with ErrCodeDeserialize.
func (c *Cache) GetDocument(ctx context.Context, key string, v any) (bool, error) {
	e, ok, err := c.latestDocument(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get document %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	return c.decodeDocument(ctx, e, v)
}

// GetUpdatedDocument is GetDocument restricted to a winner that has not been
// marked read since it was written (write_ts >= read_ts).
func (c *Cache) GetUpdatedDocument(ctx context.Context, key string, v any) (bool, error) {
	e, ok, err := c.latestDocument(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get updated document %q: %w", key, err)
	}
	if !ok || e.WriteTs < e.ReadTs {
		return false, nil
	}
	return c.decodeDocument(ctx, e, v)
}

func (c *Cache) decodeDocument(ctx context.Context, e entry.Entry, v any) (bool, error) {
	if err := entry.DecodePayload(e, v); err != nil {
		c.metrics.ObserveDeserializeSkip()
		return false, err
	}
	if c.autoMarkRead {
		if err := c.MarkRead(ctx, e.Key); err != nil {
			return true, err
		}
	}
	return true, nil
}

// MarkRead records the current time as the read timestamp of every entry
// under key.
func (c *Cache) MarkRead(ctx context.Context, key string) error {
	ts := clock.Seconds(c.clock.Now())
	n, err := c.store.UpdateReadTimestamp(ctx, key, ts)
	if err != nil {
		return fmt.Errorf("mark read %q: %w", key, err)
	}
	c.logger.Debug("marked read",
		zap.String("key", key),
		zap.Float64("read_ts", ts),
		zap.Int64("rows", n))
	return nil
}
