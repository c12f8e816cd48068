// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package dropping

import (
	"sync"
	"time"

	"github.com/gogpu/present"
)

// DefaultTimeout is the deadline used when NewTimeoutFactory is given a
// non-positive timeout. Two frames at 60 Hz.
const DefaultTimeout = 2 * time.Second / 60

// NewTimeoutFactory returns a Factory whose policies drop the oldest queued
// frame when a hand-off has been blocked for timeout. While the hand-off
// stays blocked, another frame is dropped every timeout.
func NewTimeoutFactory(timeout time.Duration) Factory {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return FactoryFunc(func(drop func()) Policy {
		return &timeoutPolicy{timeout: timeout, drop: drop}
	})
}

type timeoutPolicy struct {
	timeout time.Duration
	drop    func()

	mu         sync.Mutex
	timer      *time.Timer
	blocking   bool
	generation uint64
}

func (p *timeoutPolicy) OnBlockingStart() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.blocking = true
	p.generation++
	p.armLocked(p.generation)
}

func (p *timeoutPolicy) OnBlockingEnd() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.blocking = false
	p.generation++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// armLocked must be called with p.mu held.
func (p *timeoutPolicy) armLocked(gen uint64) {
	p.timer = time.AfterFunc(p.timeout, func() { p.expired(gen) })
}

func (p *timeoutPolicy) expired(gen uint64) {
	p.mu.Lock()
	if !p.blocking || gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	present.Logger().Warn("dropping: hand-off blocked past deadline, dropping frame",
		"timeout", p.timeout)
	p.drop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.blocking && gen == p.generation {
		p.armLocked(gen)
	}
}
