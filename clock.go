package promptmate

import (
	"time"

	"github.com/notnil/chess"
)

// Clock tracks think time per side in the timed variant. It is not safe for
// concurrent use; the match loop is the only writer.
type Clock struct {
	remaining ClockState
}

// NewClock gives both sides the same initial allotment.
func NewClock(initialMs int64) *Clock {
	return &Clock{remaining: ClockState{WhiteMs: initialMs, BlackMs: initialMs}}
}

// Remaining returns the side's unspent think time.
func (c *Clock) Remaining(color chess.Color) time.Duration {
	if color == chess.White {
		return time.Duration(c.remaining.WhiteMs) * time.Millisecond
	}
	return time.Duration(c.remaining.BlackMs) * time.Millisecond
}

// Charge deducts elapsed think time from the side that just acted, floored
// at zero.
func (c *Clock) Charge(color chess.Color, elapsed time.Duration) {
	ms := elapsed.Milliseconds()
	if color == chess.White {
		c.remaining.WhiteMs = floorMs(c.remaining.WhiteMs - ms)
		return
	}
	c.remaining.BlackMs = floorMs(c.remaining.BlackMs - ms)
}

// Flagged reports whether the side has exhausted its clock.
func (c *Clock) Flagged(color chess.Color) bool {
	return c.Remaining(color) <= 0
}

// Snapshot copies the current state for an event.
func (c *Clock) Snapshot() ClockState {
	return c.remaining
}

func floorMs(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}
