// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package nested

import (
	"github.com/gogpu/present/display"
	"github.com/gogpu/present/output"
)

// Host is the display server a nested compositor runs inside.
type Host interface {
	// DisplayConfig returns the host's current display configuration.
	DisplayConfig() (*display.Configuration, error)

	// ApplyDisplayConfig asks the host to use conf.
	ApplyDisplayConfig(conf *display.Configuration) error

	// SetDisplayConfigChangeCallback registers cb to be called whenever the
	// host configuration changes for reasons other than ApplyDisplayConfig.
	// A nil cb removes the callback.
	SetDisplayConfigChangeCallback(cb func())

	// CreateSurface creates a host surface for one group of outputs.
	CreateSurface(spec output.SurfaceSpec) (output.NativeSurface, error)

	// Platform returns the platform host surfaces belong to.
	Platform() output.Platform
}

// ConfigurationPolicy adjusts a configuration before it is first applied.
type ConfigurationPolicy interface {
	Apply(conf *display.Configuration)
}

// ConfigurationPolicyFunc adapts a function to ConfigurationPolicy.
type ConfigurationPolicyFunc func(conf *display.Configuration)

// Apply calls f(conf).
func (f ConfigurationPolicyFunc) Apply(conf *display.Configuration) {
	f(conf)
}

// KeepHostConfiguration leaves the host configuration as it is.
var KeepHostConfiguration ConfigurationPolicy = ConfigurationPolicyFunc(func(*display.Configuration) {})

// UseAllConnected uses every connected output that has a mode and stops
// using disconnected ones. Outputs with an out-of-range mode get their
// first mode.
var UseAllConnected ConfigurationPolicy = ConfigurationPolicyFunc(func(conf *display.Configuration) {
	for i := range conf.Outputs {
		o := &conf.Outputs[i]
		o.Used = o.Connected && len(o.Modes) > 0
		if o.Used {
			if _, ok := o.Mode(); !ok {
				o.CurrentMode = 0
			}
		}
	}
})
