// Package metrics exposes Prometheus instrumentation for the cache and the
// sync engine. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "usercache"

// Metrics holds all Prometheus metrics for the user cache
type Metrics struct {
	// Cache metrics
	EntriesWrittenTotal   *prometheus.CounterVec
	DeserializeSkipsTotal prometheus.Counter
	EntriesStored         *prometheus.GaugeVec

	// Retention metrics
	ObsoleteDocumentsPurgedTotal prometheus.Counter
	EntriesClearedTotal          prometheus.Counter

	// Sync metrics
	ExportedRecordsTotal prometheus.Counter
	ImportedRecordsTotal prometheus.Counter
	FallbackScansTotal   prometheus.Counter
	SyncRoundsTotal      *prometheus.CounterVec
	SyncDuration         prometheus.Histogram
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntriesWrittenTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries_written_total",
			Help:      "Total number of entries written, by entry type",
		}, []string{"type"}),
		DeserializeSkipsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "deserialize_skips_total",
			Help:      "Total number of stored payloads skipped because they could not be decoded",
		}),
		EntriesStored: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries_stored",
			Help:      "Number of entries currently stored, by entry type",
		}, []string{"type"}),

		ObsoleteDocumentsPurgedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "obsolete_documents_purged_total",
			Help:      "Total number of superseded read-write document rows removed",
		}),
		EntriesClearedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "entries_cleared_total",
			Help:      "Total number of entries removed by range clears",
		}),

		ExportedRecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "exported_records_total",
			Help:      "Total number of records exported for upload",
		}),
		ImportedRecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "imported_records_total",
			Help:      "Total number of records imported from the server",
		}),
		FallbackScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "boundary_fallback_scans_total",
			Help:      "Total number of boundary computations that needed the full transition scan",
		}),
		SyncRoundsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "rounds_total",
			Help:      "Total number of sync rounds, by result",
		}, []string{"result"}),
		SyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "round_duration_seconds",
			Help:      "Duration of sync rounds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveWrite counts one appended entry of the given type.
func (m *Metrics) ObserveWrite(typ string) {
	if m == nil {
		return
	}
	m.EntriesWrittenTotal.WithLabelValues(typ).Inc()
}

// ObserveDeserializeSkip counts one undecodable payload.
func (m *Metrics) ObserveDeserializeSkip() {
	if m == nil {
		return
	}
	m.DeserializeSkipsTotal.Inc()
}

// ObserveClear records the outcome of a retention clear.
func (m *Metrics) ObserveClear(obsoletePurged, rangeDeleted int64) {
	if m == nil {
		return
	}
	m.ObsoleteDocumentsPurgedTotal.Add(float64(obsoletePurged))
	m.EntriesClearedTotal.Add(float64(rangeDeleted))
}

// ObserveExport counts exported records.
func (m *Metrics) ObserveExport(n int) {
	if m == nil {
		return
	}
	m.ExportedRecordsTotal.Add(float64(n))
}

// ObserveImport counts imported records.
func (m *Metrics) ObserveImport(n int) {
	if m == nil {
		return
	}
	m.ImportedRecordsTotal.Add(float64(n))
}

// ObserveFallbackScan counts a boundary computation that fell back to the full scan.
func (m *Metrics) ObserveFallbackScan() {
	if m == nil {
		return
	}
	m.FallbackScansTotal.Inc()
}

// ObserveSync records a finished sync round.
func (m *Metrics) ObserveSync(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SyncRoundsTotal.WithLabelValues(result).Inc()
	m.SyncDuration.Observe(elapsed.Seconds())
}

// SetStored publishes the current per-type entry counts.
func (m *Metrics) SetStored(counts map[string]int64) {
	if m == nil {
		return
	}
	for typ, n := range counts {
		m.EntriesStored.WithLabelValues(typ).Set(float64(n))
	}
}
