// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package timing

import (
	"sync"

	"github.com/gogpu/present"
)

// DefaultDriftLimit is the number of consecutive estimated frames after
// which FrameClock warns that it is no longer tracking hardware.
// At 60 Hz this is two seconds.
const DefaultDriftLimit = 120

// Frame is a snapshot of the last presented frame.
type Frame struct {
	// Sequence counts presented frames. It never decreases.
	Sequence uint64

	// Timestamp is when the frame was presented.
	Timestamp Timestamp
}

// FrameStats reports how a FrameClock has been fed.
type FrameStats struct {
	// HardwareSamples is the number of Store calls.
	HardwareSamples uint64

	// Fallbacks is the number of IncrementNow calls.
	Fallbacks uint64

	// ConsecutiveFallbacks counts IncrementNow calls since the last Store.
	ConsecutiveFallbacks uint64
}

// FrameClock holds the last known presented frame of one output.
//
// It is written by the presenting goroutine and read by any goroutine that
// paces future frames. Every operation is a single short critical section,
// so Read never observes a sequence number from one frame paired with the
// timestamp of another.
//
// Hardware samples are authoritative. When software estimates (IncrementNow)
// have advanced the sequence past what the hardware later reports, the clock
// keeps an offset so the published sequence stays monotonic and follows the
// hardware count from then on.
type FrameClock struct {
	mu     sync.Mutex
	frame  Frame
	offset uint64
	stats  FrameStats
	warned bool

	driftLimit uint64
	now        func(Clock) Timestamp
}

// NewFrameClock returns a FrameClock at sequence 0.
func NewFrameClock(opts ...Option) *FrameClock {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &FrameClock{
		frame:      Frame{Timestamp: Timestamp{Clock: o.clock}},
		driftLimit: o.driftLimit,
		now:        Now,
	}
}

// Store records a frame reported by the hardware.
func (c *FrameClock) Store(sequence uint64, ts Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	published := sequence + c.offset
	if published < c.frame.Sequence {
		c.offset = c.frame.Sequence - sequence
		published = c.frame.Sequence
	}
	c.frame = Frame{Sequence: published, Timestamp: ts}
	c.stats.HardwareSamples++
	c.stats.ConsecutiveFallbacks = 0
	c.warned = false
}

// IncrementNow records an estimated frame: the sequence advances by one and
// the timestamp is the current time on the clock of the last recorded frame.
//
// Estimates may lag the real presentation.
func (c *FrameClock) IncrementNow() {
	c.mu.Lock()
	c.frame = Frame{
		Sequence:  c.frame.Sequence + 1,
		Timestamp: c.now(c.frame.Timestamp.Clock),
	}
	c.stats.Fallbacks++
	c.stats.ConsecutiveFallbacks++
	consecutive := c.stats.ConsecutiveFallbacks
	warn := c.driftLimit > 0 && consecutive >= c.driftLimit && !c.warned
	if warn {
		c.warned = true
	}
	c.mu.Unlock()

	if warn {
		present.Logger().Warn("timing: frame clock running on estimates only",
			"consecutive", consecutive)
	}
}

// Read returns a consistent snapshot of the last frame.
func (c *FrameClock) Read() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Stats returns how the clock has been fed so far.
func (c *FrameClock) Stats() FrameStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
