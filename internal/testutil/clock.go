// Package testutil provides deterministic clocks and token generators for
// scenario tests and the conformance harness.
package testutil

import "sync"

// Clock is a thread-safe deterministic millisecond clock.
//
// The kernel never reads wall time; every engine takes "now" as an input.
// The harness drives that input from a Clock so the same scenario produces
// byte-identical traces on every run.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu    sync.Mutex
	nowMs int64
}

// NewClock creates a clock starting at startMs.
func NewClock(startMs int64) *Clock {
	return &Clock{nowMs: startMs}
}

// NowMs returns the current time in milliseconds.
func (c *Clock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowMs
}

// Advance moves the clock forward by deltaMs. Negative deltas are ignored;
// the clock never goes backwards.
func (c *Clock) Advance(deltaMs int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if deltaMs > 0 {
		c.nowMs += deltaMs
	}
	return c.nowMs
}

// Set jumps the clock to ms when ms is ahead of the current time.
func (c *Clock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms > c.nowMs {
		c.nowMs = ms
	}
}
