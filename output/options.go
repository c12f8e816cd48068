// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package output

import (
	"github.com/gogpu/present/display"
	"github.com/gogpu/present/internal/capability"
	"github.com/gogpu/present/timing"
)

type options struct {
	orientation display.Orientation
	clock       *timing.FrameClock
	caps        *capability.Cache
	ownContext  bool
}

// Option configures a Surface.
type Option func(*options)

// WithOrientation sets the initial orientation of the surface.
func WithOrientation(o display.Orientation) Option {
	return func(opts *options) {
		opts.orientation = o
	}
}

// WithFrameClock makes the surface publish frame timing to clock instead of
// a clock of its own.
func WithFrameClock(clock *timing.FrameClock) Option {
	return func(opts *options) {
		opts.clock = clock
	}
}

// WithCapabilities shares a capability cache between surfaces of one
// platform so extensions are probed once.
func WithCapabilities(caps *capability.Cache) Option {
	return func(opts *options) {
		opts.caps = caps
	}
}

// WithOwnedContext hands the rendering context to the surface, which
// destroys it in Destroy.
func WithOwnedContext() Option {
	return func(opts *options) {
		opts.ownContext = true
	}
}
