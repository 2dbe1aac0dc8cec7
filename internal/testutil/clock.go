// Package testutil provides the fixed clock and master-data fixtures the
// engine tests share.
package testutil

import (
	"sync"
	"time"
)

// FixedClock pins "today" for deterministic posting, lock-date, and
// auto-post tests. Implements engine.Clock.
//
// Thread-safety: all methods are safe for concurrent use.
type FixedClock struct {
	mu  sync.Mutex
	day time.Time
}

// NewFixedClock creates a clock pinned to the given day.
func NewFixedClock(day time.Time) *FixedClock {
	return &FixedClock{day: day}
}

// Date is shorthand for a UTC midnight date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the pinned day.
func (c *FixedClock) Today() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

// Advance moves the pinned day forward.
func (c *FixedClock) Advance(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = c.day.AddDate(0, 0, days)
}

// Set pins a new day.
func (c *FixedClock) Set(day time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = day
}
