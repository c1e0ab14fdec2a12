package cache

import (
	"time"

	"go.uber.org/atomic"
)

// Clock returns non-decreasing elapsed milliseconds since an arbitrary epoch.
type Clock interface {
	NowMillis() uint64
}

// MonotonicClock reads Go's monotonic clock relative to the moment it was
// created, so wall-clock adjustments never move expirations.
type MonotonicClock struct {
	epoch time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{epoch: time.Now()}
}

func (c *MonotonicClock) NowMillis() uint64 {
	ms := time.Since(c.epoch).Milliseconds()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// ManualClock only moves when told to. Used in tests to cross TTL boundaries
// without sleeping.
type ManualClock struct {
	now atomic.Uint64
}

func NewManualClock(start uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

func (c *ManualClock) NowMillis() uint64 { return c.now.Load() }

// Advance moves the clock forward by d, truncated to milliseconds.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.now.Add(uint64(d.Milliseconds()))
}
