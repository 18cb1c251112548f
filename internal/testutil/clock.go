package testutil

import (
	"sync"
	"time"
)

// DeterministicClock provides a thread-safe, manually advanced clock for tests.
//
// Every call to Now() returns the current instant and then advances it by
// the step (one second by default), so consecutive writes get strictly
// increasing write_ts values without sleeping.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	now   time.Time
	start time.Time
	step  time.Duration
	zone  string
}

// NewDeterministicClock creates a clock starting at start (epoch seconds)
// that advances one second per Now() call and reports zone "UTC".
func NewDeterministicClock(start float64) *DeterministicClock {
	t := fromSeconds(start)
	return &DeterministicClock{now: t, start: t, step: time.Second, zone: "UTC"}
}

func fromSeconds(ts float64) time.Time {
	return time.Unix(0, int64(ts*float64(time.Second))).UTC()
}

// Now returns the current instant and advances the clock by one step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the current instant without advancing.
func (c *DeterministicClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Zone returns the configured timezone identifier.
func (c *DeterministicClock) Zone() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zone
}

// Set moves the clock to ts (epoch seconds).
func (c *DeterministicClock) Set(ts float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = fromSeconds(ts)
}

// SetStep changes how far each Now() call advances the clock.
func (c *DeterministicClock) SetStep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = d
}

// SetZone changes the reported timezone.
func (c *DeterministicClock) SetZone(zone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zone = zone
}

// Reset returns the clock to its starting instant.
//
// Used for test reuse.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
