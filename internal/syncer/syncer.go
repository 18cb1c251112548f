package syncer

import (
	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/config"
	"github.com/roach88/usercache/internal/metrics"
	"github.com/roach88/usercache/internal/store"
	"github.com/roach88/usercache/internal/usercache"
)

// DutyCycler reports whether location tracking is duty-cycled.
// It is read once per boundary computation.
type DutyCycler interface {
	IsDutyCycling() bool
}

// DutyCycling is a fixed DutyCycler.
type DutyCycling bool

// IsDutyCycling implements DutyCycler.
func (d DutyCycling) IsDutyCycling() bool { return bool(d) }

// Engine runs boundary detection, export, and import against one store.
type Engine struct {
	store         *store.Store
	cache         *usercache.Cache
	dutyCycle     DutyCycler
	transitionKey string
	stoppedMarker string
	exportLimit   int
	persistErrors bool
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithTransitionKey sets the key transitions are stored under.
func WithTransitionKey(key string) Option {
	return func(e *Engine) {
		e.transitionKey = key
	}
}

// WithStoppedMarker sets the transition value that ends a trip.
func WithStoppedMarker(marker string) Option {
	return func(e *Engine) {
		e.stoppedMarker = marker
	}
}

// WithExportLimit caps the number of records per export.
func WithExportLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.exportLimit = n
		}
	}
}

// WithPersistErrors controls whether rows with unparseable payloads are
// copied to the error table during export.
func WithPersistErrors(enabled bool) Option {
	return func(e *Engine) {
		e.persistErrors = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates a sync engine over s.
func New(s *store.Store, dutyCycle DutyCycler, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		dutyCycle:     dutyCycle,
		transitionKey: config.DefaultTransitionKey,
		stoppedMarker: config.DefaultStoppedMoving,
		exportLimit:   config.DefaultExportLimit,
		persistErrors: true,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dutyCycle == nil {
		e.dutyCycle = DutyCycling(false)
	}
	e.cache = usercache.New(s, usercache.WithLogger(e.logger), usercache.WithMetrics(e.metrics))
	return e
}

// FromConfig creates an engine with every sync setting taken from cfg.
func FromConfig(s *store.Store, cfg *config.Config, opts ...Option) *Engine {
	base := []Option{
		WithTransitionKey(cfg.Sync.TransitionKey),
		WithStoppedMarker(cfg.Sync.StoppedMoving),
		WithExportLimit(cfg.Sync.ExportLimit),
		WithPersistErrors(cfg.ShouldPersistErrors()),
	}
	return New(s, cfg, append(base, opts...)...)
}
