package syncer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/store"
)

// Import appends one entry per record inside a single transaction, keeping
// every metadata field the server sent. Nothing is deduplicated: importing
// the same batch twice stores it twice.
//
// If any record is rejected the whole batch is rolled back.
func (e *Engine) Import(ctx context.Context, records []entry.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	err := e.store.InTx(ctx, func(tx *store.Store) error {
		for i, r := range records {
			if _, err := tx.Append(ctx, r.ToEntry()); err != nil {
				return fmt.Errorf("record %d (key=%s): %w", i, r.Metadata.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}

	e.metrics.ObserveImport(len(records))
	e.logger.Info("imported batch", zap.Int("records", len(records)))
	return len(records), nil
}
