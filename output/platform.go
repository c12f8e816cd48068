// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package output

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/present/display"
)

// ExtSyncControl is the extension advertising hardware swap timestamps.
const ExtSyncControl = "EGL_CHROMIUM_sync_control"

// NativeSurface is a platform presentation surface handle.
type NativeSurface any

// Context is a platform rendering context handle. Context values must be
// comparable.
type Context any

// SurfaceSpec describes a presentation surface to create.
type SurfaceSpec struct {
	// Output is the smallest id of the outputs the surface shows.
	Output display.OutputID

	// Size is the surface size in physical pixels.
	Size image.Point

	// Format is the pixel format of the surface.
	Format gputypes.TextureFormat

	// Label names the surface in platform diagnostics.
	Label string
}

// Platform is a presentation backend: a window system, a display server
// connection, or an in-memory simulation.
//
// A context current on one OS thread is invisible to others, so callers
// that make contexts current run on a locked OS thread.
type Platform interface {
	// Extensions returns the space-separated list of supported extensions.
	Extensions() string

	// CreateContext creates a rendering context for format, sharing
	// resources with share if it is not nil.
	CreateContext(format gputypes.TextureFormat, share Context) (Context, error)

	// DestroyContext releases a context created by CreateContext.
	DestroyContext(ctx Context)

	// CreateSurface creates a presentation surface.
	CreateSurface(spec SurfaceSpec) (NativeSurface, error)

	// ResizeSurface changes the size of a surface in place.
	ResizeSurface(s NativeSurface, size image.Point) error

	// DestroySurface releases a surface created by CreateSurface.
	DestroySurface(s NativeSurface)

	// MakeCurrent binds ctx and s to the calling thread. It fails if ctx is
	// current on another thread.
	MakeCurrent(s NativeSurface, ctx Context) error

	// ReleaseCurrent unbinds the calling thread's current context.
	ReleaseCurrent() error

	// CurrentContext returns the context current on the calling thread, or nil.
	CurrentContext() Context

	// SwapBuffers presents the back buffer of s.
	SwapBuffers(s NativeSurface) error

	// Close releases the platform connection.
	Close() error
}

// SyncControl is implemented by platforms that can report when the last
// swap reached the screen. It is only used when the platform also advertises
// ExtSyncControl.
type SyncControl interface {
	// SyncValues returns the unadjusted system time of the last vertical
	// retrace in microseconds on the monotonic clock, the media stream
	// counter and the swap buffer counter.
	SyncValues(s NativeSurface) (ust, msc, sbc int64, err error)
}
