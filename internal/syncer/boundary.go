package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/queryir"
)

// Boundary is the result of boundary detection.
type Boundary struct {
	// Ts is the last exportable write_ts, or entry.NoBoundary.
	Ts float64 `json:"ts"`

	// Fallback is set when the pattern lookup missed and the full
	// transition scan ran.
	Fallback bool `json:"fallback,omitempty"`
}

// Found reports whether anything is exportable.
func (b Boundary) Found() bool {
	return b.Ts != entry.NoBoundary
}

// ComputeBoundary returns the export boundary timestamp, or entry.NoBoundary.
func (e *Engine) ComputeBoundary(ctx context.Context) (float64, error) {
	b, err := e.DetectBoundary(ctx)
	if err != nil {
		return entry.NoBoundary, err
	}
	return b.Ts, nil
}

// DetectBoundary computes the export boundary and reports how it was found.
func (e *Engine) DetectBoundary(ctx context.Context) (Boundary, error) {
	if !e.dutyCycle.IsDutyCycling() {
		return e.lastEntryBoundary(ctx)
	}
	return e.lastTransitionBoundary(ctx)
}

// lastEntryBoundary is the write_ts of the newest entry of any type.
func (e *Engine) lastEntryBoundary(ctx context.Context) (Boundary, error) {
	last, ok, err := e.store.First(ctx, queryir.Select{Order: queryir.Descending})
	if err != nil {
		return Boundary{Ts: entry.NoBoundary}, fmt.Errorf("compute boundary: %w", err)
	}
	if !ok {
		e.logger.Debug("no entries, nothing to export")
		return Boundary{Ts: entry.NoBoundary}, nil
	}
	return Boundary{Ts: last.WriteTs}, nil
}

// lastTransitionBoundary is the write_ts of the newest stopped-moving
// transition.
func (e *Engine) lastTransitionBoundary(ctx context.Context) (Boundary, error) {
	key := queryir.Eq(queryir.FieldKey, entry.NormalizeKey(e.transitionKey))

	candidate, ok, err := e.store.First(ctx, queryir.Select{
		Filter: queryir.AllOf(key, queryir.Like{Field: queryir.FieldData, Pattern: "%" + e.marker() + "%"}),
		Order:  queryir.Descending,
	})
	if err != nil {
		return Boundary{Ts: entry.NoBoundary}, fmt.Errorf("compute boundary: %w", err)
	}
	// LIKE treats "_" in the marker as a wildcard; confirm the literal match.
	if ok && strings.Contains(string(candidate.Payload), e.marker()) {
		return Boundary{Ts: candidate.WriteTs}, nil
	}

	e.metrics.ObserveFallbackScan()
	transitions, err := e.store.Scan(ctx, queryir.Select{Filter: key, Order: queryir.Descending})
	if err != nil {
		return Boundary{Ts: entry.NoBoundary}, fmt.Errorf("compute boundary: fallback scan: %w", err)
	}
	for _, t := range transitions {
		if e.isStopped(t.Payload) {
			e.logger.Warn("pattern lookup missed stopped transition, found by full scan",
				zap.Bool("fallback", true),
				zap.Float64("write_ts", t.WriteTs),
				zap.Int("scanned", len(transitions)))
			return Boundary{Ts: t.WriteTs, Fallback: true}, nil
		}
	}

	e.logger.Info("no completed trip, nothing to export",
		zap.Bool("fallback", true),
		zap.Int("scanned", len(transitions)))
	return Boundary{Ts: entry.NoBoundary, Fallback: true}, nil
}

// marker is the literal payload fragment of a stopped-moving transition.
func (e *Engine) marker() string {
	return `"transition":"` + e.stoppedMarker + `"`
}

// isStopped reports whether a transition payload carries the stopped
// marker, either literally or as the decoded "transition" field (which
// tolerates payloads re-encoded with whitespace).
func (e *Engine) isStopped(payload json.RawMessage) bool {
	if strings.Contains(string(payload), e.marker()) {
		return true
	}
	var t struct {
		Transition string `json:"transition"`
	}
	if err := json.Unmarshal(payload, &t); err != nil {
		return false
	}
	return t.Transition == e.stoppedMarker
}
