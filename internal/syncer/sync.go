package syncer

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/transport"
	"github.com/roach88/usercache/internal/usercache"
)

// Report summarizes one sync round.
type Report struct {
	Boundary Boundary             `json:"boundary"`
	BatchID  string               `json:"batch_id,omitempty"`
	Exported int                  `json:"exported"`
	Skipped  int                  `json:"skipped"`
	Cleared  usercache.ClearStats `json:"cleared"`
	Imported int                  `json:"imported"`
}

// Sync runs one round against t: export, send, clear what was sent,
// then fetch, import, and acknowledge each pending inbound batch.
//
// Nothing is cleared unless Send succeeds. The clear covers exactly the
// write_ts range the export looked at; when the export limit was hit, rows
// sharing the last timestamp are held back for the next round so none is
// cleared without being sent.
func (e *Engine) Sync(ctx context.Context, t transport.Transport) (rep Report, err error) {
	start := time.Now()
	defer func() {
		e.metrics.ObserveSync(err, time.Since(start))
	}()

	res, err := e.ExportBatch(ctx)
	if err != nil {
		return rep, fmt.Errorf("sync: %w", err)
	}
	rep.Boundary = res.Boundary
	rep.Skipped = res.Skipped

	records, last := holdBackTies(res)
	if len(records) > 0 {
		batch, err := transport.NewBatch(records)
		if err != nil {
			return rep, fmt.Errorf("sync: %w", err)
		}
		if err := t.Send(ctx, batch); err != nil {
			return rep, fmt.Errorf("sync: send batch %s: %w", batch.ID, err)
		}
		rep.BatchID = batch.ID
		rep.Exported = len(records)
	}

	if last != entry.NoBoundary {
		stats, err := e.cache.Clear(ctx, entry.TimeQuery{
			Field: entry.WriteTs,
			Start: math.Nextafter(res.First, math.Inf(-1)),
			End:   math.Nextafter(last, math.Inf(1)),
		})
		if err != nil {
			return rep, fmt.Errorf("sync: %w", err)
		}
		rep.Cleared = stats
	}

	if err := e.receive(ctx, t, &rep); err != nil {
		return rep, fmt.Errorf("sync: %w", err)
	}

	e.logger.Info("sync round complete",
		zap.Float64("boundary", rep.Boundary.Ts),
		zap.Bool("fallback", rep.Boundary.Fallback),
		zap.String("batch_id", rep.BatchID),
		zap.Int("exported", rep.Exported),
		zap.Int("skipped", rep.Skipped),
		zap.Int64("obsolete_purged", rep.Cleared.ObsoletePurged),
		zap.Int64("range_deleted", rep.Cleared.RangeDeleted),
		zap.Int("imported", rep.Imported),
		zap.Duration("elapsed", time.Since(start)))
	return rep, nil
}

// receive imports the pending inbound batches in order. Each batch is
// acknowledged only after its import commits. The first batch that fails to
// fetch or import stops the loop; it and the batches after it stay pending.
func (e *Engine) receive(ctx context.Context, t transport.Transport, rep *Report) error {
	refs, err := t.Pending(ctx)
	if err != nil {
		return fmt.Errorf("list inbound: %w", err)
	}
	for _, ref := range refs {
		records, err := t.Fetch(ctx, ref)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", ref, err)
		}
		n, err := e.Import(ctx, records)
		if err != nil {
			return fmt.Errorf("inbound %s: %w", ref, err)
		}
		rep.Imported += n
		if err := t.Ack(ctx, ref); err != nil {
			e.logger.Error("imported batch not acknowledged, it will be imported again",
				zap.String("ref", ref), zap.Error(err))
			return fmt.Errorf("ack %s: %w", ref, err)
		}
	}
	return nil
}

// holdBackTies returns the records to send and the last write_ts to clear.
//
// A truncated export may have cut a run of rows with equal write_ts in two.
// Those trailing rows are dropped from this round and the clear stops short
// of their timestamp. A batch that is one single timestamp is sent whole.
func holdBackTies(res ExportResult) ([]entry.Record, float64) {
	if !res.Truncated || res.First == res.Last {
		return res.Records, res.Last
	}

	records := res.Records
	for len(records) > 0 && records[len(records)-1].Metadata.WriteTs == res.Last {
		records = records[:len(records)-1]
	}
	return records, math.Nextafter(res.Last, math.Inf(-1))
}
