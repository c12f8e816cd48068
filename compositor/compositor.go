// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compositor drives sync groups: one goroutine per group renders
// the group's outputs and posts them, as fast as presenting allows.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/present"
	"github.com/gogpu/present/nested"
	"github.com/gogpu/present/output"
)

// ErrRunning is returned by Start when the loop is already running.
var ErrRunning = errors.New("compositor: already running")

// Display is the set of sync groups to composite.
type Display interface {
	ForEachSyncGroup(f func(g *nested.SyncGroup))
}

// Renderer draws one frame to a surface whose context is current.
type Renderer interface {
	Render(ctx context.Context, s *output.Surface) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, s *output.Surface) error

// Render calls f(ctx, s).
func (f RendererFunc) Render(ctx context.Context, s *output.Surface) error {
	return f(ctx, s)
}

// MultiThreaded composites every sync group on its own goroutine, each
// locked to an OS thread for the lifetime of its rendering context binding.
//
// The set of groups is fixed at Start. To reconfigure the display, Stop the
// loop, configure, and Start again.
type MultiThreaded struct {
	display  Display
	renderer Renderer
	frames   atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewMultiThreaded returns a stopped compositing loop.
func NewMultiThreaded(display Display, renderer Renderer) *MultiThreaded {
	return &MultiThreaded{display: display, renderer: renderer}
}

// Start launches one goroutine per sync group. The loop runs until Stop is
// called, ctx is done, or a group fails.
func (m *MultiThreaded) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.group != nil {
		return ErrRunning
	}

	var groups []*nested.SyncGroup
	m.display.ForEachSyncGroup(func(g *nested.SyncGroup) {
		groups = append(groups, g)
	})

	ctx, cancel := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)
	for _, g := range groups {
		eg.Go(func() error {
			return m.run(ctx, g)
		})
	}
	m.cancel = cancel
	m.group = eg
	present.Logger().Info("compositor: started", "groups", len(groups))
	return nil
}

// Stop ends the loop and waits for every group goroutine. It returns the
// first error a group failed with.
func (m *MultiThreaded) Stop() error {
	m.mu.Lock()
	cancel, eg := m.cancel, m.group
	m.cancel, m.group = nil, nil
	m.mu.Unlock()

	if eg == nil {
		return nil
	}
	cancel()
	err := eg.Wait()
	present.Logger().Info("compositor: stopped", "frames", m.frames.Load())
	return err
}

// Frames returns the number of frames posted since creation.
func (m *MultiThreaded) Frames() uint64 {
	return m.frames.Load()
}

func (m *MultiThreaded) run(ctx context.Context, g *nested.SyncGroup) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var bound []*output.Surface
	defer func() {
		for _, s := range bound {
			if rerr := s.ReleaseCurrent(); rerr != nil && err == nil {
				err = rerr
			}
		}
	}()

	g.ForEachOutput(func(s *output.Surface) {
		if err != nil {
			return
		}
		if err = s.MakeCurrent(); err == nil {
			bound = append(bound, s)
		}
	})
	if err != nil {
		return fmt.Errorf("compositor: group %d: %w", g.ID(), err)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		g.ForEachOutput(func(s *output.Surface) {
			if err == nil {
				err = m.renderer.Render(ctx, s)
			}
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("compositor: render group %d: %w", g.ID(), err)
		}
		if perr := g.Post(); perr != nil {
			return fmt.Errorf("compositor: post group %d: %w", g.ID(), perr)
		}
		m.frames.Add(1)

		if d := g.RecommendedSleep(); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
		}
	}
}
