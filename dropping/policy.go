// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package dropping decides when a frame is dropped to relieve backpressure.
//
// The buffer hand-off tells a Policy when a producer starts waiting for a
// free buffer and when that wait ends. What to do about a long wait is up to
// the policy: the timeout policy forces the oldest queued frame to be
// released after a deadline so a stalled consumer cannot stall the producer
// indefinitely.
package dropping

import "sync"

// Policy receives backpressure notifications from a buffer hand-off.
//
// The hand-off calls the two methods in strict alternation: never two
// OnBlockingStart calls without an OnBlockingEnd in between.
type Policy interface {
	// OnBlockingStart is called when a hand-off begins waiting on the consumer.
	OnBlockingStart()

	// OnBlockingEnd is called when that wait resolves, because the buffer was
	// consumed, force-dropped, or the wait was abandoned.
	OnBlockingEnd()
}

// Factory creates a Policy for one hand-off.
//
// drop force-releases the oldest queued frame of that hand-off. It may be
// called from any goroutine and must not be called with policy locks held.
type Factory interface {
	CreatePolicy(drop func()) Policy
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(drop func()) Policy

// CreatePolicy calls f(drop).
func (f FactoryFunc) CreatePolicy(drop func()) Policy {
	return f(drop)
}

// Nop is a Policy that never drops frames.
type Nop struct{}

// OnBlockingStart does nothing.
func (Nop) OnBlockingStart() {}

// OnBlockingEnd does nothing.
func (Nop) OnBlockingEnd() {}

// NopFactory creates Nop policies.
var NopFactory Factory = FactoryFunc(func(func()) Policy { return Nop{} })

// Guard wraps a Policy and forwards only state transitions, so the wrapped
// policy observes strict alternation even if callers repeat themselves.
//
// Guard is safe for concurrent use.
type Guard struct {
	mu       sync.Mutex
	policy   Policy
	blocking bool
}

// NewGuard returns a Guard forwarding to p. A nil p is treated as Nop.
func NewGuard(p Policy) *Guard {
	if p == nil {
		p = Nop{}
	}
	return &Guard{policy: p}
}

// OnBlockingStart forwards the notification unless already blocking.
func (g *Guard) OnBlockingStart() {
	g.mu.Lock()
	if g.blocking {
		g.mu.Unlock()
		return
	}
	g.blocking = true
	g.mu.Unlock()

	g.policy.OnBlockingStart()
}

// OnBlockingEnd forwards the notification unless not blocking.
func (g *Guard) OnBlockingEnd() {
	g.mu.Lock()
	if !g.blocking {
		g.mu.Unlock()
		return
	}
	g.blocking = false
	g.mu.Unlock()

	g.policy.OnBlockingEnd()
}

// Blocking reports whether a wait is in progress.
func (g *Guard) Blocking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.blocking
}
