package usercache

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
	"github.com/roach88/usercache/internal/store"
)

// ClearStats reports what a Clear removed.
type ClearStats struct {
	ObsoletePurged int64 `json:"obsolete_purged"`
	RangeDeleted   int64 `json:"range_deleted"`
}

// Clear prunes the store in two ordered steps inside one transaction:
//
//  1. every RwDocument older than the latest Document for its key is deleted;
//  2. every entry whose selected timestamp lies strictly inside
//     (tq.Start, tq.End) is deleted, except RwDocuments and the latest
//     Document of each key.
//
// Step 1 runs first because step 2 may delete the Documents that prove an
// RwDocument obsolete. The entries step 2 keeps are the only local copies of
// each key's current document state.
func (c *Cache) Clear(ctx context.Context, tq entry.TimeQuery) (ClearStats, error) {
	if err := tq.Validate(); err != nil {
		return ClearStats{}, fmt.Errorf("clear: %w", err)
	}

	var stats ClearStats
	err := c.store.InTx(ctx, func(tx *store.Store) error {
		purged, err := purgeObsoleteDocuments(ctx, tx)
		if err != nil {
			return err
		}
		stats.ObsoletePurged = purged

		deleted, err := tx.DeleteWhere(ctx, queryir.Delete{
			Filter: queryir.AllOf(
				queryir.Ne(queryir.FieldType, entry.RwDocument),
				queryir.Between(string(tq.Field), tq.Start, tq.End, true),
				queryir.Not{Predicate: queryir.LatestOfType{Type: entry.Document}},
			),
		})
		if err != nil {
			return fmt.Errorf("range purge: %w", err)
		}
		stats.RangeDeleted = deleted
		return nil
	})
	if err != nil {
		return ClearStats{}, fmt.Errorf("clear: %w", err)
	}

	c.metrics.ObserveClear(stats.ObsoletePurged, stats.RangeDeleted)
	c.logger.Info("cleared entries",
		zap.Stringer("range", tq),
		zap.Int64("obsolete_purged", stats.ObsoletePurged),
		zap.Int64("range_deleted", stats.RangeDeleted))
	return stats, nil
}

// purgeObsoleteDocuments sweeps, per key, the RwDocuments written before the
// key's latest Document and returns the number of rows deleted.
func purgeObsoleteDocuments(ctx context.Context, tx *store.Store) (int64, error) {
	latest, err := tx.LatestDocumentTimestamps(ctx)
	if err != nil {
		return 0, fmt.Errorf("obsolete purge: %w", err)
	}

	keys := make([]string, 0, len(latest))
	for key := range latest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var total int64
	for _, key := range keys {
		n, err := tx.DeleteWhere(ctx, queryir.Delete{
			Filter: queryir.AllOf(
				queryir.Eq(queryir.FieldKey, key),
				queryir.Eq(queryir.FieldType, entry.RwDocument),
				queryir.Compare{Field: queryir.FieldWriteTs, Op: queryir.OpLt, Value: latest[key]},
			),
		})
		if err != nil {
			return 0, fmt.Errorf("obsolete purge %q: %w", key, err)
		}
		total += n
	}
	return total, nil
}

// ClearAll deletes every live entry. Intended for debugging and reset.
func (c *Cache) ClearAll(ctx context.Context) (int64, error) {
	n, err := c.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear all: %w", err)
	}
	c.logger.Warn("cleared all entries", zap.Int64("deleted", n))
	return n, nil
}
