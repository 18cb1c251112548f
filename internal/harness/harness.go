package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/entry"
	"github.com/roach88/usercache/internal/store"
	"github.com/roach88/usercache/internal/syncer"
	"github.com/roach88/usercache/internal/testutil"
	"github.com/roach88/usercache/internal/transport"
	"github.com/roach88/usercache/internal/usercache"
)

// Harness is the test execution engine.
// It runs scenarios against a real cache and sync engine with a
// deterministic clock.
type Harness struct {
	store     *store.Store
	cache     *usercache.Cache
	engine    *syncer.Engine
	clock     *testutil.DeterministicClock
	transport *transport.Memory
	logger    *zap.Logger
}

// Option configures scenario execution.
type Option func(*Harness)

// WithLogger routes cache and sync engine logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Execute steps in order, tracing each one
//  3. Evaluate assertions against the final state
//
// A step that fails is an error, not an assertion failure.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:     st,
		clock:     testutil.NewDeterministicClock(1),
		transport: transport.NewMemory(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.cache = usercache.New(st,
		usercache.WithClock(h.clock),
		usercache.WithLogger(h.logger),
		usercache.WithPlugin("harness"))
	h.engine = syncer.New(st, syncer.DutyCycling(scenario.DutyCycling),
		syncer.WithExportLimit(scenario.ExportLimit),
		syncer.WithLogger(h.logger))

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{Ctx: ctx, Cache: h.cache, Engine: h.engine}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, step Step, result *Result) error {
	switch {
	case step.Put != nil:
		if step.Put.At != 0 {
			h.clock.Set(step.Put.At)
		}
		id, err := h.cache.Put(ctx, step.Put.Type, step.Put.Key, step.Put.Data)
		if err != nil {
			return err
		}
		result.AddTrace("put", step.Put, map[string]int64{"id": id})

	case step.MarkRead != nil:
		if step.MarkRead.At != 0 {
			h.clock.Set(step.MarkRead.At)
		}
		if err := h.cache.MarkRead(ctx, step.MarkRead.Key); err != nil {
			return err
		}
		result.AddTrace("mark_read", step.MarkRead, nil)

	case step.Clear != nil:
		stats, err := h.cache.Clear(ctx, *step.Clear)
		if err != nil {
			return err
		}
		result.AddTrace("clear", step.Clear, stats)

	case step.ClearAll:
		n, err := h.cache.ClearAll(ctx)
		if err != nil {
			return err
		}
		result.AddTrace("clear_all", nil, map[string]int64{"deleted": n})

	case step.Export:
		records, err := h.engine.Export(ctx)
		if err != nil {
			return err
		}
		result.AddTrace("export", nil, records)

	case step.Import != nil:
		records, err := toRecords(step.Import)
		if err != nil {
			return err
		}
		n, err := h.engine.Import(ctx, records)
		if err != nil {
			return err
		}
		result.AddTrace("import", records, map[string]int{"imported": n})

	case step.Sync != nil:
		incoming, err := toRecords(step.Sync.Incoming)
		if err != nil {
			return err
		}
		h.transport.Queue(incoming...)
		rep, err := h.engine.Sync(ctx, h.transport)
		if err != nil {
			return err
		}
		// Batch ids are random; keep the trace deterministic.
		rep.BatchID = ""
		result.AddTrace("sync", nil, rep)

	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

func toRecords(in []RecordSpec) ([]entry.Record, error) {
	records := make([]entry.Record, 0, len(in))
	for _, rs := range in {
		r, err := rs.Record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
