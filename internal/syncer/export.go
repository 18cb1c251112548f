package syncer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
)

// ExportResult is one export pass.
type ExportResult struct {
	Boundary Boundary
	Records  []entry.Record

	// Skipped counts rows whose payload was not structured JSON.
	Skipped int

	// First and Last bracket the write_ts of every row the pass looked at,
	// skipped rows included. Both are entry.NoBoundary when no row qualified.
	First float64
	Last  float64

	// Truncated is set when the export limit cut the selection short.
	Truncated bool
}

var exportTypes = func() []any {
	out := make([]any, len(entry.ExportTypes))
	for i, t := range entry.ExportTypes {
		out[i] = string(t)
	}
	return out
}()

// Export returns the records to upload: Message, RwDocument, and SensorData
// entries with write_ts at or before the boundary, oldest first, at most the
// export limit. Document entries are never exported.
//
// Rows whose payload is not a JSON object or array are skipped, logged, and
// (unless disabled) copied to the error table. An empty, non-nil slice is
// returned when there is no boundary.
func (e *Engine) Export(ctx context.Context) ([]entry.Record, error) {
	res, err := e.ExportBatch(ctx)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// ExportBatch is Export with the bookkeeping a sync round needs.
func (e *Engine) ExportBatch(ctx context.Context) (ExportResult, error) {
	res := ExportResult{
		Records: []entry.Record{},
		First:   entry.NoBoundary,
		Last:    entry.NoBoundary,
	}

	b, err := e.DetectBoundary(ctx)
	if err != nil {
		return res, fmt.Errorf("export: %w", err)
	}
	res.Boundary = b
	if !b.Found() {
		return res, nil
	}

	rows, err := e.store.Scan(ctx, queryir.Select{
		Filter: queryir.AllOf(
			queryir.In{Field: queryir.FieldType, Values: exportTypes},
			queryir.Compare{Field: queryir.FieldWriteTs, Op: queryir.OpLe, Value: b.Ts},
		),
		Order: queryir.Ascending,
		Limit: e.exportLimit,
	})
	if err != nil {
		return res, fmt.Errorf("export: %w", err)
	}
	if len(rows) == 0 {
		return res, nil
	}
	res.Truncated = len(rows) == e.exportLimit
	res.First = rows[0].WriteTs
	res.Last = rows[len(rows)-1].WriteTs

	for _, row := range rows {
		if !entry.ValidPayload(row.Payload) {
			res.Skipped++
			e.skipRow(ctx, row)
			continue
		}
		res.Records = append(res.Records, row.ToRecord())
	}

	e.metrics.ObserveExport(len(res.Records))
	e.logger.Info("exported batch",
		zap.Float64("boundary", b.Ts),
		zap.Int("records", len(res.Records)),
		zap.Int("skipped", res.Skipped),
		zap.Bool("truncated", res.Truncated))
	return res, nil
}

func (e *Engine) skipRow(ctx context.Context, row entry.Entry) {
	e.metrics.ObserveDeserializeSkip()
	e.logger.Error("skipping entry with unparseable payload",
		zap.String("key", row.Key),
		zap.Float64("write_ts", row.WriteTs),
		zap.Int("payload_len", len(row.Payload)))

	if !e.persistErrors {
		return
	}
	if _, err := e.store.AppendError(ctx, row); err != nil {
		e.logger.Error("failed to record export error", zap.Error(err))
	}
}
