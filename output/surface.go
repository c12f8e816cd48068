// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package output presents frames to one output surface.
//
// A Surface owns a platform presentation surface, draws with a rendering
// context that is current on at most one thread, and records the timing of every present in a FrameClock so
// clients can pace their next frame without asking the compositor.
//
// Platform variants register themselves with Register and are selected at
// startup with NewPlatform:
//
//	import _ "github.com/gogpu/present/output/headless"
//
//	platform, err := output.NewPlatform()
package output

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/present"
	"github.com/gogpu/present/display"
	"github.com/gogpu/present/internal/capability"
	"github.com/gogpu/present/timing"
)

// Surface is the presentation target of one group of outputs.
//
// MakeCurrent, Present and ReleaseCurrent are called from the goroutine
// driving the output, locked to its OS thread. ViewArea, Orientation and
// FrameClock may be called from any goroutine.
type Surface struct {
	platform Platform
	native   NativeSurface
	ctx      Context
	clock    *timing.FrameClock
	caps     *capability.Cache
	ownsCtx  bool

	current   atomic.Bool
	destroyed atomic.Bool

	mu          sync.Mutex
	area        image.Rectangle
	orientation display.Orientation
}

// New wraps native, a surface created on platform, whose physical area is
// area. The surface is drawn with ctx, which it does not own unless
// WithOwnedContext is given.
func New(platform Platform, native NativeSurface, ctx Context, area image.Rectangle, opts ...Option) *Surface {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = timing.NewFrameClock()
	}
	if o.caps == nil {
		o.caps = capability.New()
	}
	return &Surface{
		platform:    platform,
		native:      native,
		ctx:         ctx,
		clock:       o.clock,
		caps:        o.caps,
		ownsCtx:     o.ownContext,
		area:        area,
		orientation: o.orientation,
	}
}

// Create creates a platform surface for spec at area and wraps it.
func Create(platform Platform, spec SurfaceSpec, ctx Context, area image.Rectangle, opts ...Option) (*Surface, error) {
	spec.Size = area.Size()
	native, err := platform.CreateSurface(spec)
	if err != nil {
		return nil, fmt.Errorf("output: create surface for output %d: %w", spec.Output, err)
	}
	return New(platform, native, ctx, area, opts...), nil
}

// MakeCurrent binds the surface and its context to the calling thread.
//
// Returns an error wrapping present.ErrContext if the surface is already
// current or the platform rejects the binding.
func (s *Surface) MakeCurrent() error {
	if s.destroyed.Load() {
		return present.ErrClosed
	}
	if !s.current.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: surface already current", present.ErrContext)
	}
	if err := s.platform.MakeCurrent(s.native, s.ctx); err != nil {
		s.current.Store(false)
		return fmt.Errorf("%w: make current: %w", present.ErrContext, err)
	}
	return nil
}

// ReleaseCurrent unbinds the context made current by MakeCurrent. It does
// nothing if the surface is not current.
func (s *Surface) ReleaseCurrent() error {
	if !s.current.Load() {
		return nil
	}
	if err := s.platform.ReleaseCurrent(); err != nil {
		return fmt.Errorf("%w: release current: %w", present.ErrContext, err)
	}
	s.current.Store(false)
	return nil
}

// Current reports whether the surface is bound by MakeCurrent.
func (s *Surface) Current() bool {
	return s.current.Load()
}

// Present shows the back buffer and records when it reached the screen.
//
// If the platform reports hardware swap timestamps, the frame clock stores
// them as is. Otherwise the frame clock advances by one frame at the
// current time.
func (s *Surface) Present() error {
	if err := s.platform.SwapBuffers(s.native); err != nil {
		return fmt.Errorf("%w: %w", present.ErrPresentation, err)
	}

	if sc, ok := s.syncControl(); ok {
		ust, msc, _, err := sc.SyncValues(s.native)
		if err == nil && msc >= 0 {
			s.clock.Store(uint64(msc), timing.FromMicroseconds(timing.Monotonic, ust))
			return nil
		}
		present.Logger().Debug("output: sync values unavailable", "err", err)
	}
	s.clock.IncrementNow()
	return nil
}

func (s *Surface) syncControl() (SyncControl, bool) {
	sc, implemented := s.platform.(SyncControl)
	ok := s.caps.Supported(ExtSyncControl, func() bool {
		return implemented && capability.HasExtension(s.platform.Extensions(), ExtSyncControl)
	})
	return sc, ok
}

// ViewArea returns the area renderers target. For left and right
// orientations width and height are swapped relative to the physical area.
func (s *Surface) ViewArea() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.orientation.Rotated() {
		return s.area
	}
	size := s.area.Size()
	return image.Rectangle{Min: s.area.Min, Max: s.area.Min.Add(image.Pt(size.Y, size.X))}
}

// Area returns the physical area of the surface.
func (s *Surface) Area() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.area
}

// Resize changes the physical area of the surface. The native surface is
// resized in place and the rendering context stays valid.
func (s *Surface) Resize(area image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if area.Size() != s.area.Size() {
		if err := s.platform.ResizeSurface(s.native, area.Size()); err != nil {
			return fmt.Errorf("output: resize to %v: %w", area.Size(), err)
		}
	}
	s.area = area
	return nil
}

// Orientation returns the rotation applied to the view area.
func (s *Surface) Orientation() display.Orientation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orientation
}

// SetOrientation changes the rotation applied to the view area.
func (s *Surface) SetOrientation(o display.Orientation) {
	s.mu.Lock()
	s.orientation = o
	s.mu.Unlock()
}

// FrameClock returns the clock the surface publishes presentation times to.
func (s *Surface) FrameClock() *timing.FrameClock {
	return s.clock
}

// Native returns the platform surface handle.
func (s *Surface) Native() NativeSurface {
	return s.native
}

// Context returns the rendering context the surface is drawn with.
func (s *Surface) Context() Context {
	return s.ctx
}

// Destroy destroys the native surface, and the context if the surface owns
// it. Destroy is idempotent.
//
// A context current on the calling thread is released first. A surface
// current on another thread is left to that thread to release.
func (s *Surface) Destroy() {
	if s.destroyed.Swap(true) {
		return
	}
	if s.current.Load() {
		if s.platform.CurrentContext() == s.ctx {
			if err := s.ReleaseCurrent(); err != nil {
				present.Logger().Warn("output: release on destroy failed", "err", err)
			}
		} else {
			present.Logger().Warn("output: surface destroyed while current on another thread")
		}
	}
	s.platform.DestroySurface(s.native)
	if s.ownsCtx {
		s.platform.DestroyContext(s.ctx)
	}
}
