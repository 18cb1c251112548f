package usercache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/clock"
	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/metrics"
	"github.com/roach88/usercache/internal/store"
)

// Cache is the user cache. It is safe for use by the single writer process;
// the underlying store serializes statements.
type Cache struct {
	store        *store.Store
	clock        clock.Clock
	logger       *zap.Logger
	metrics      *metrics.Metrics
	plugin       string
	autoMarkRead bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the time and timezone source used to stamp entries.
func WithClock(c clock.Clock) Option {
	return func(uc *Cache) {
		uc.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(uc *Cache) {
		uc.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *Cache) {
		uc.metrics = m
	}
}

// WithPlugin sets the plugin name recorded on every entry this cache writes.
func WithPlugin(name string) Option {
	return func(uc *Cache) {
		uc.plugin = name
	}
}

// WithAutoMarkRead makes GetDocument and GetUpdatedDocument mark the key as
// read whenever they return a value.
func WithAutoMarkRead(enabled bool) Option {
	return func(uc *Cache) {
		uc.autoMarkRead = enabled
	}
}

// New creates a cache over s.
func New(s *store.Store, opts ...Option) *Cache {
	uc := &Cache{
		store:  s,
		clock:  clock.System{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Store returns the underlying entry store.
func (c *Cache) Store() *store.Store {
	return c.store
}

// Put serializes v and appends it under key with the current time and
// timezone. Returns the new row id.
//
// A value that cannot be encoded fails with an *entry.Error carrying
// ErrCodeSerialization and nothing is written.
func (c *Cache) Put(ctx context.Context, typ entry.Type, key string, v any) (int64, error) {
	if !typ.Valid() {
		return 0, fmt.Errorf("put: unknown entry type %q", typ)
	}

	payload, err := entry.EncodePayload(key, v)
	if err != nil {
		return 0, fmt.Errorf("put %s %q: %w", typ, key, err)
	}

	e := entry.Entry{
		Metadata: entry.Metadata{
			WriteTs:  clock.Seconds(c.clock.Now()),
			TimeZone: c.clock.Zone(),
			Type:     typ,
			Key:      key,
			Plugin:   c.plugin,
		},
		Payload: payload,
	}

	id, err := c.store.Append(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("put %s %q: %w", typ, key, err)
	}

	c.metrics.ObserveWrite(string(typ))
	c.logger.Debug("appended entry",
		zap.String("type", string(typ)),
		zap.String("key", key),
		zap.Float64("write_ts", e.WriteTs),
		zap.Int64("id", id))
	return id, nil
}

// PutSensorData records a sensor reading.
func (c *Cache) PutSensorData(ctx context.Context, key string, v any) (int64, error) {
	return c.Put(ctx, entry.SensorData, key, v)
}

// PutMessage records an inter-component message.
func (c *Cache) PutMessage(ctx context.Context, key string, v any) (int64, error) {
	return c.Put(ctx, entry.Message, key, v)
}

// PutReadWriteDocument writes a new current state for a mutable slot.
func (c *Cache) PutReadWriteDocument(ctx context.Context, key string, v any) (int64, error) {
	return c.Put(ctx, entry.RwDocument, key, v)
}

// PutDocument writes a derived snapshot. It supersedes every RwDocument for
// key written before it.
func (c *Cache) PutDocument(ctx context.Context, key string, v any) (int64, error) {
	return c.Put(ctx, entry.Document, key, v)
}

// skip logs and counts a payload that could not be decoded.
func (c *Cache) skip(err error) {
	c.metrics.ObserveDeserializeSkip()
	c.logger.Error("skipping undecodable payload", zap.Error(err))
}
