// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package nested

import (
	"image"
	"slices"
	"time"

	"github.com/gogpu/present/display"
	"github.com/gogpu/present/output"
)

// SyncGroup is a set of overlapping outputs drawn to one surface and
// presented together.
type SyncGroup struct {
	id      display.OutputID
	outputs []display.OutputID
	surface *output.Surface
}

// ID returns the smallest id of the group's outputs.
func (g *SyncGroup) ID() display.OutputID {
	return g.id
}

// Outputs returns the ids of the outputs the group shows, in order.
func (g *SyncGroup) Outputs() []display.OutputID {
	return slices.Clone(g.outputs)
}

// Surface returns the group's presentation surface.
func (g *SyncGroup) Surface() *output.Surface {
	return g.surface
}

// ForEachOutput calls f with every surface of the group.
func (g *SyncGroup) ForEachOutput(f func(s *output.Surface)) {
	f(g.surface)
}

// Post presents the group's surface.
func (g *SyncGroup) Post() error {
	return g.surface.Present()
}

// RecommendedSleep returns how long the compositing loop may sleep after
// Post before drawing the next frame.
func (g *SyncGroup) RecommendedSleep() time.Duration {
	return 0
}

// Resize changes the physical area of the group's surface.
func (g *SyncGroup) Resize(area image.Rectangle) error {
	return g.surface.Resize(area)
}
