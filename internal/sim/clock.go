package sim

import "sync/atomic"

// Clock is the monotonic logical clock used to break ties between events
// scheduled for the same simulated time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// However, the Env's single-writer design means only one goroutine
// calls Next() at a time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
