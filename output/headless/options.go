// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package headless

import "time"

type options struct {
	refreshRate float64
	syncControl bool
	extra       []string
}

func defaultOptions() options {
	return options{syncControl: true}
}

func (o options) interval() time.Duration {
	if o.refreshRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / o.refreshRate)
}

// Option configures a Platform.
type Option func(*options)

// WithRefreshRate paces swaps to a simulated display refreshing hz times per
// second. Without it swaps complete immediately.
func WithRefreshRate(hz float64) Option {
	return func(o *options) {
		o.refreshRate = hz
	}
}

// WithSyncControl sets whether the platform advertises hardware sync values.
func WithSyncControl(enabled bool) Option {
	return func(o *options) {
		o.syncControl = enabled
	}
}

// WithExtensions adds extension names to those the platform advertises.
func WithExtensions(names ...string) Option {
	return func(o *options) {
		o.extra = append(o.extra, names...)
	}
}
