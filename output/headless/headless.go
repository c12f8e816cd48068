// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package headless provides an in-memory presentation platform.
//
// Surfaces are plain records and swaps complete immediately or, with
// WithRefreshRate, on the next simulated vertical retrace. The platform
// reports hardware-style sync values unless WithSyncControl(false) is given,
// which makes presenting fall back to estimated frame times.
//
// Importing the package registers it as the "headless" platform.
package headless

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/present"
	"github.com/gogpu/present/output"
	"github.com/gogpu/present/timing"
)

// Name is the registry name of the platform.
const Name = "headless"

func init() {
	output.Register(Name, 10, func() (output.Platform, error) {
		return New(), nil
	}, nil)
}

// Errors returned by the platform.
var (
	ErrForeignHandle = errors.New("headless: handle not created by this platform")
	ErrDestroyed     = errors.New("headless: surface destroyed")
	ErrNoSwap        = errors.New("headless: no swap completed yet")
	ErrContextBusy   = errors.New("headless: context current on another thread")
)

// Context is a headless rendering context.
type Context struct {
	id     int
	Format gputypes.TextureFormat
	Shared *Context
}

// Surface is a headless presentation surface.
type Surface struct {
	id        int
	spec      output.SurfaceSpec
	size      image.Point
	ust       int64
	msc       int64
	sbc       int64
	destroyed bool
}

// Spec returns the spec the surface was created with.
func (s *Surface) Spec() output.SurfaceSpec {
	return s.spec
}

// Stats counts platform calls.
type Stats struct {
	ContextsCreated   int
	ContextsDestroyed int
	SurfacesCreated   int
	SurfacesDestroyed int
	Resizes           int
	Swaps             int
}

// Platform is an in-memory output.Platform.
//
// Like a real platform it keeps one current context per OS thread and a
// context is current on at most one thread. Callers lock their goroutine
// to its thread while a context is current.
type Platform struct {
	opts  options
	start time.Time

	mu      sync.Mutex
	nextID  int
	current map[int]*Context // by thread id
	holder  map[*Context]int
	stats   Stats
	swapErr error
	closed  bool
}

// New returns a headless platform.
func New(opts ...Option) *Platform {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Platform{
		opts:    o,
		start:   time.Now(),
		current: make(map[int]*Context),
		holder:  make(map[*Context]int),
	}
}

// Extensions returns the extensions the platform advertises.
func (p *Platform) Extensions() string {
	exts := []string{"EGL_KHR_image_base", "GL_OES_EGL_image"}
	if p.opts.syncControl {
		exts = append(exts, output.ExtSyncControl)
	}
	exts = append(exts, p.opts.extra...)
	return strings.Join(exts, " ")
}

// CreateContext creates a context for format.
func (p *Platform) CreateContext(format gputypes.TextureFormat, share output.Context) (output.Context, error) {
	var shared *Context
	if share != nil {
		c, ok := share.(*Context)
		if !ok {
			return nil, ErrForeignHandle
		}
		shared = c
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, present.ErrClosed
	}
	p.nextID++
	p.stats.ContextsCreated++
	return &Context{id: p.nextID, Format: format, Shared: shared}, nil
}

// DestroyContext releases ctx.
func (p *Platform) DestroyContext(ctx output.Context) {
	c, ok := ctx.(*Context)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tid, ok := p.holder[c]; ok {
		delete(p.current, tid)
		delete(p.holder, c)
	}
	p.stats.ContextsDestroyed++
}

// CreateSurface creates a surface of spec.Size.
func (p *Platform) CreateSurface(spec output.SurfaceSpec) (output.NativeSurface, error) {
	if spec.Size.X <= 0 || spec.Size.Y <= 0 {
		return nil, fmt.Errorf("headless: invalid surface size %v", spec.Size)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, present.ErrClosed
	}
	p.nextID++
	p.stats.SurfacesCreated++
	present.Logger().Debug("headless: surface created", "output", spec.Output, "size", spec.Size)
	return &Surface{id: p.nextID, spec: spec, size: spec.Size}, nil
}

func (p *Platform) surface(s output.NativeSurface) (*Surface, error) {
	hs, ok := s.(*Surface)
	if !ok || hs == nil {
		return nil, ErrForeignHandle
	}
	if hs.destroyed {
		return nil, ErrDestroyed
	}
	return hs, nil
}

// ResizeSurface changes the size of s in place.
func (p *Platform) ResizeSurface(s output.NativeSurface, size image.Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	hs, err := p.surface(s)
	if err != nil {
		return err
	}
	hs.size = size
	p.stats.Resizes++
	return nil
}

// DestroySurface releases s.
func (p *Platform) DestroySurface(s output.NativeSurface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hs, err := p.surface(s)
	if err != nil {
		return
	}
	hs.destroyed = true
	p.stats.SurfacesDestroyed++
}

// MakeCurrent makes ctx current on the calling thread, replacing the
// thread's previous context. It fails with ErrContextBusy if ctx is current
// on another thread.
func (p *Platform) MakeCurrent(s output.NativeSurface, ctx output.Context) error {
	c, ok := ctx.(*Context)
	if !ok || c == nil {
		return ErrForeignHandle
	}
	tid := threadID()

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.surface(s); err != nil {
		return err
	}
	if holder, ok := p.holder[c]; ok && holder != tid {
		return ErrContextBusy
	}
	if old := p.current[tid]; old != nil {
		delete(p.holder, old)
	}
	p.current[tid] = c
	p.holder[c] = tid
	return nil
}

// ReleaseCurrent clears the calling thread's current context.
func (p *Platform) ReleaseCurrent() error {
	tid := threadID()

	p.mu.Lock()
	defer p.mu.Unlock()
	if c := p.current[tid]; c != nil {
		delete(p.holder, c)
		delete(p.current, tid)
	}
	return nil
}

// CurrentContext returns the context current on the calling thread, or nil.
func (p *Platform) CurrentContext() output.Context {
	tid := threadID()

	p.mu.Lock()
	defer p.mu.Unlock()
	if c := p.current[tid]; c != nil {
		return c
	}
	return nil
}

// SwapBuffers completes a swap on s, waiting for the next simulated retrace
// if a refresh rate is set.
func (p *Platform) SwapBuffers(s output.NativeSurface) error {
	p.mu.Lock()
	hs, err := p.surface(s)
	if err == nil {
		err = p.swapErr
	}
	p.mu.Unlock()
	if err != nil {
		return err
	}

	var retrace int64
	if interval := p.opts.interval(); interval > 0 {
		n := time.Since(p.start)/interval + 1
		time.Sleep(time.Until(p.start.Add(n * interval)))
		retrace = int64(n)
	}
	ust := timing.Now(timing.Monotonic).Nanoseconds.Microseconds()

	p.mu.Lock()
	defer p.mu.Unlock()
	hs.sbc++
	if retrace > hs.msc {
		hs.msc = retrace
	} else {
		hs.msc++
	}
	hs.ust = ust
	p.stats.Swaps++
	return nil
}

// SyncValues reports the time and counters of the last swap on s.
func (p *Platform) SyncValues(s output.NativeSurface) (ust, msc, sbc int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hs, err := p.surface(s)
	if err != nil {
		return 0, 0, 0, err
	}
	if hs.sbc == 0 {
		return 0, 0, 0, ErrNoSwap
	}
	return hs.ust, hs.msc, hs.sbc, nil
}

// SetSwapError makes subsequent swaps fail with err. A nil err restores
// normal operation.
func (p *Platform) SetSwapError(err error) {
	p.mu.Lock()
	p.swapErr = err
	p.mu.Unlock()
}

// Stats returns call counters.
func (p *Platform) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// SurfaceSize returns the current size of s.
func (p *Platform) SurfaceSize(s output.NativeSurface) (image.Point, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hs, err := p.surface(s)
	if err != nil {
		return image.Point{}, false
	}
	return hs.size, true
}

// Close marks the platform closed. Existing handles stay usable.
func (p *Platform) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
