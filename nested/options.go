// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package nested

import "github.com/gogpu/gpucontext"

type options struct {
	provider gpucontext.DeviceProvider
	policy   ConfigurationPolicy
}

func defaultOptions() options {
	return options{policy: KeepHostConfiguration}
}

// Option configures a Compositor.
type Option func(*options)

// WithDeviceProvider shares a GPU device provider with the compositor.
// Outputs without a pixel format use the provider's surface format.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithConfigurationPolicy sets the policy applied to the host configuration
// at startup and after host-initiated changes.
func WithConfigurationPolicy(p ConfigurationPolicy) Option {
	return func(o *options) {
		if p == nil {
			p = KeepHostConfiguration
		}
		o.policy = p
	}
}
