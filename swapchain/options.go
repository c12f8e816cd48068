// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package swapchain

import "github.com/gogpu/present/dropping"

// DefaultBufferCount is the number of buffers a Chain cycles by default:
// one being drawn, one queued, one on screen.
const DefaultBufferCount = 3

// options holds Chain configuration.
type options struct {
	count  int
	policy dropping.Factory
}

func defaultOptions() options {
	return options{
		count:  DefaultBufferCount,
		policy: dropping.NopFactory,
	}
}

// Option configures a Chain.
type Option func(*options)

// WithBufferCount sets how many buffers the chain cycles. Values below 2 are
// raised to 2.
func WithBufferCount(n int) Option {
	return func(o *options) {
		o.count = max(n, 2)
	}
}

// WithDroppingPolicy sets the factory creating the chain's backpressure
// policy. A nil factory disables frame dropping.
func WithDroppingPolicy(f dropping.Factory) Option {
	return func(o *options) {
		if f == nil {
			f = dropping.NopFactory
		}
		o.policy = f
	}
}
