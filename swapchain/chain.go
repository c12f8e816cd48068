// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package swapchain hands buffers between a frame producer and a compositor.
//
// A Chain cycles a fixed number of buffers through three queues: free
// buffers the client may draw into, ready frames waiting for the
// compositor, and the frame the compositor is showing. When the client
// outruns the compositor it blocks in ClientAcquire, and the chain's
// dropping policy decides whether to force the oldest ready frame out.
//
// A Chain serves one producer goroutine and one compositor goroutine.
package swapchain

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/present"
	"github.com/gogpu/present/buffer"
	"github.com/gogpu/present/dropping"
)

// ErrNotOwned is returned when a buffer is handed to the chain by a party
// that does not hold it.
var ErrNotOwned = errors.New("swapchain: buffer not held by caller")

type state uint8

const (
	stateFree state = iota
	stateClient
	stateReady
	stateCompositor
)

// Chain is a fixed-size buffer hand-off between a client and a compositor.
type Chain struct {
	importer  *buffer.Importer
	allocator buffer.Allocator
	count     int
	guard     *dropping.Guard

	mu      sync.Mutex
	props   buffer.Properties
	owned   map[*buffer.Buffer]state
	free    []*buffer.Buffer
	ready   []*buffer.Buffer
	wake    chan struct{}
	dropped uint64
	closed  bool
}

// New returns a Chain allocating buffers with props from allocator and
// importing them through importer. Buffers are allocated on demand.
func New(importer *buffer.Importer, allocator buffer.Allocator, props buffer.Properties, opts ...Option) *Chain {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Chain{
		importer:  importer,
		allocator: allocator,
		count:     o.count,
		props:     props,
		owned:     make(map[*buffer.Buffer]state, o.count),
		wake:      make(chan struct{}),
	}
	c.guard = dropping.NewGuard(o.policy.CreatePolicy(func() { c.DropOldest() }))
	return c
}

// ClientAcquire returns a buffer the client may draw into.
//
// If every buffer is queued or on screen, ClientAcquire blocks until the
// compositor frees one, the dropping policy forces one out, ctx is done, or
// the chain is closed.
func (c *Chain) ClientAcquire(ctx context.Context) (*buffer.Buffer, error) {
	blocking := false
	defer func() {
		if blocking {
			c.guard.OnBlockingEnd()
		}
	}()

	c.mu.Lock()
	for {
		if c.closed {
			c.mu.Unlock()
			return nil, present.ErrClosed
		}
		if n := len(c.free); n > 0 {
			b := c.free[n-1]
			c.free = c.free[:n-1]
			c.owned[b] = stateClient
			c.mu.Unlock()
			return b, nil
		}
		if len(c.owned) < c.count {
			b, err := c.allocateLocked()
			if err != nil {
				c.mu.Unlock()
				return nil, err
			}
			c.owned[b] = stateClient
			c.mu.Unlock()
			return b, nil
		}

		wake := c.wake
		c.mu.Unlock()

		if !blocking {
			blocking = true
			c.guard.OnBlockingStart()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
		c.mu.Lock()
	}
}

// ClientSubmit queues a buffer obtained from ClientAcquire for display.
func (c *Chain) ClientSubmit(b *buffer.Buffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return present.ErrClosed
	}
	if s, ok := c.owned[b]; !ok || s != stateClient {
		return ErrNotOwned
	}
	c.owned[b] = stateReady
	c.ready = append(c.ready, b)
	return nil
}

// CompositorAcquire takes the newest ready frame. Older ready frames are
// stale and go back to the free list. It returns false if no frame is ready.
func (c *Chain) CompositorAcquire() (*buffer.Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.ready)
	if c.closed || n == 0 {
		return nil, false
	}
	newest := c.ready[n-1]
	for _, stale := range c.ready[:n-1] {
		c.recycleLocked(stale)
		c.dropped++
	}
	c.ready = c.ready[:0]
	c.owned[newest] = stateCompositor
	c.broadcastLocked()
	return newest, true
}

// CompositorRelease returns a frame the compositor has finished showing.
func (c *Chain) CompositorRelease(b *buffer.Buffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return present.ErrClosed
	}
	if s, ok := c.owned[b]; !ok || s != stateCompositor {
		return ErrNotOwned
	}
	c.recycleLocked(b)
	c.broadcastLocked()
	return nil
}

// DropOldest forces the oldest ready frame back to the free list without
// showing it. It reports whether a frame was dropped.
func (c *Chain) DropOldest() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(c.ready) == 0 {
		return false
	}
	oldest := c.ready[0]
	c.ready = c.ready[1:]
	c.recycleLocked(oldest)
	c.dropped++
	c.broadcastLocked()
	present.Logger().Debug("swapchain: frame dropped", "handle", oldest.Object().Handle())
	return true
}

// Dropped returns the number of frames discarded without being shown.
func (c *Chain) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Size returns the size of newly allocated buffers.
func (c *Chain) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props.Size
}

// Resize changes the size of subsequently allocated buffers. Free buffers of
// the old size are destroyed immediately; buffers in use are destroyed when
// they come back.
func (c *Chain) Resize(size image.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.props.Size == size {
		return
	}
	c.props.Size = size
	kept := c.free[:0]
	for _, b := range c.free {
		if b.Size() != size {
			c.destroyLocked(b)
			continue
		}
		kept = append(kept, b)
	}
	clear(c.free[len(kept):])
	c.free = kept
	c.broadcastLocked()
}

// Close destroys every buffer and fails pending and future acquisitions
// with present.ErrClosed.
func (c *Chain) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	var errs []error
	for b := range c.owned {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	clear(c.owned)
	c.free = nil
	c.ready = nil
	c.broadcastLocked()
	c.mu.Unlock()

	return errors.Join(errs...)
}

func (c *Chain) allocateLocked() (*buffer.Buffer, error) {
	obj, err := c.allocator.Allocate(c.props)
	if err != nil {
		return nil, fmt.Errorf("swapchain: allocate %v buffer: %w", c.props.Size, err)
	}
	return c.importer.Wrap(obj), nil
}

// recycleLocked moves b to the free list, replacing it if its size is stale.
func (c *Chain) recycleLocked(b *buffer.Buffer) {
	if b.Size() != c.props.Size {
		c.destroyLocked(b)
		return
	}
	c.owned[b] = stateFree
	c.free = append(c.free, b)
}

func (c *Chain) destroyLocked(b *buffer.Buffer) {
	delete(c.owned, b)
	if err := b.Close(); err != nil {
		present.Logger().Warn("swapchain: buffer release failed", "err", err)
	}
}

func (c *Chain) broadcastLocked() {
	close(c.wake)
	c.wake = make(chan struct{})
}
