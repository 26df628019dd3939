package signal

import (
	"math"
	"sync/atomic"

	"github.com/roach88/simcheck/internal/simerr"
)

// Clock holds the current simulation time of one run.
//
// The simulation engine owns the clock and advances it; signal evaluation only
// reads it. Time is monotonic non-decreasing within a run and may be reset
// between runs.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations). A read
// observes the last value the engine stored.
type Clock struct {
	bits atomic.Uint64
}

// NewClock creates a clock at t = 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock at the given start time.
func NewClockAt(start float64) *Clock {
	c := &Clock{}
	c.bits.Store(math.Float64bits(start))
	return c
}

// Now returns the current simulation time.
func (c *Clock) Now() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Advance moves the clock to t. Moving backwards or to NaN is rejected;
// advancing to the current time is a no-op.
func (c *Clock) Advance(t float64) error {
	if math.IsNaN(t) {
		return simerr.Configuration("signal.Clock.Advance", "time is NaN")
	}
	for {
		old := c.bits.Load()
		cur := math.Float64frombits(old)
		if t < cur {
			return simerr.Configuration("signal.Clock.Advance",
				"time moved backwards from %g to %g", cur, t)
		}
		if c.bits.CompareAndSwap(old, math.Float64bits(t)) {
			return nil
		}
	}
}

// Reset rewinds the clock to start for the next run.
func (c *Clock) Reset(start float64) {
	c.bits.Store(math.Float64bits(start))
}
