// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package timing

// Option configures a FrameClock during creation.
type Option func(*options)

type options struct {
	clock      Clock
	driftLimit uint64
}

func defaultOptions() options {
	return options{
		clock:      Monotonic,
		driftLimit: DefaultDriftLimit,
	}
}

// WithClock sets the clock estimated frames are stamped on until the first
// hardware sample arrives. The default is Monotonic.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithDriftLimit sets how many consecutive estimated frames are tolerated
// before a warning is logged. Zero disables the warning.
func WithDriftLimit(n uint64) Option {
	return func(o *options) {
		o.driftLimit = n
	}
}
