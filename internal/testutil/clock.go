package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe deterministic clock for tests.
//
// Each call to Now returns the current time and then advances it by the
// configured step, so successive timestamps are distinct but fully
// predictable. The same scenario run twice produces byte-identical alerts
// and reports.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFixedClock creates a clock starting at start, advancing by step on
// every Now call. A zero step freezes the clock.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{now: start.UTC(), step: step}
}

// Now returns the current time and advances the clock by the step.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d without returning a timestamp.
// Used to model wall time passing between scans, e.g. an author resolving
// an alert and then adding new evidence later.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Current returns the clock's current time without advancing it.
func (c *FixedClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
