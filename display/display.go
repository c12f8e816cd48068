// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package display describes the layout of physical outputs.
//
// A Configuration lists every output a host knows about, where it sits in
// the global coordinate space, the mode it runs in and how it is rotated.
// Outputs whose extents overlap show the same content and are grouped so a
// compositor can draw them from one rendering context.
package display

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/present"
)

// OutputID identifies an output within a Configuration.
type OutputID int

// Orientation is the clockwise rotation of an output's content in degrees.
type Orientation int

// Orientations.
const (
	Normal   Orientation = 0
	Left     Orientation = 90
	Inverted Orientation = 180
	Right    Orientation = 270
)

// String returns the orientation name.
func (o Orientation) String() string {
	switch o {
	case Normal:
		return "normal"
	case Left:
		return "left"
	case Inverted:
		return "inverted"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// Valid reports whether o is one of the four supported rotations.
func (o Orientation) Valid() bool {
	switch o {
	case Normal, Left, Inverted, Right:
		return true
	}
	return false
}

// Rotated reports whether o swaps width and height.
func (o Orientation) Rotated() bool {
	return o == Left || o == Right
}

// Mode is one resolution an output can run in.
type Mode struct {
	Size        image.Point
	RefreshRate float64
}

// Output is one physical output.
type Output struct {
	ID          OutputID
	Connected   bool
	Used        bool
	TopLeft     image.Point
	Modes       []Mode
	CurrentMode int
	Format      gputypes.TextureFormat
	Orientation Orientation
}

// Mode returns the current mode, or false if CurrentMode is out of range.
func (o Output) Mode() (Mode, bool) {
	if o.CurrentMode < 0 || o.CurrentMode >= len(o.Modes) {
		return Mode{}, false
	}
	return o.Modes[o.CurrentMode], true
}

// Extents returns the area the output covers in the global coordinate space.
// Left and right orientations swap the mode's width and height. An output
// without a valid mode has empty extents.
func (o Output) Extents() image.Rectangle {
	m, ok := o.Mode()
	if !ok {
		return image.Rectangle{Min: o.TopLeft, Max: o.TopLeft}
	}
	size := m.Size
	if o.Orientation.Rotated() {
		size.X, size.Y = size.Y, size.X
	}
	return image.Rectangle{Min: o.TopLeft, Max: o.TopLeft.Add(size)}
}

// Active reports whether the output is connected and in use.
func (o Output) Active() bool {
	return o.Connected && o.Used
}

func (o Output) equal(p Output) bool {
	return o.ID == p.ID &&
		o.Connected == p.Connected &&
		o.Used == p.Used &&
		o.TopLeft == p.TopLeft &&
		slices.Equal(o.Modes, p.Modes) &&
		o.CurrentMode == p.CurrentMode &&
		o.Format == p.Format &&
		o.Orientation == p.Orientation
}

// Configuration is the layout of every output of a host.
type Configuration struct {
	Outputs []Output
}

// Output returns the output with the given id.
func (c *Configuration) Output(id OutputID) (Output, bool) {
	for _, o := range c.Outputs {
		if o.ID == id {
			return o, true
		}
	}
	return Output{}, false
}

// Validate checks that c can be applied: at least one output is used, every
// used output is connected with an in-range mode, a defined format and a
// supported orientation, and no two outputs share an id.
//
// The returned error wraps present.ErrInvalidConfiguration.
func (c *Configuration) Validate() error {
	var errs []error
	seen := make(map[OutputID]bool, len(c.Outputs))
	used := 0
	for _, o := range c.Outputs {
		if seen[o.ID] {
			errs = append(errs, fmt.Errorf("duplicate output id %d", o.ID))
		}
		seen[o.ID] = true
		if !o.Used {
			continue
		}
		used++
		if !o.Connected {
			errs = append(errs, fmt.Errorf("output %d used but not connected", o.ID))
		}
		if m, ok := o.Mode(); !ok {
			errs = append(errs, fmt.Errorf("output %d mode %d out of range", o.ID, o.CurrentMode))
		} else if m.Size.X <= 0 || m.Size.Y <= 0 {
			errs = append(errs, fmt.Errorf("output %d mode size %v", o.ID, m.Size))
		}
		if o.Format == gputypes.TextureFormatUndefined {
			errs = append(errs, fmt.Errorf("output %d has no pixel format", o.ID))
		}
		if !o.Orientation.Valid() {
			errs = append(errs, fmt.Errorf("output %d orientation %v", o.ID, o.Orientation))
		}
	}
	if used == 0 {
		errs = append(errs, errors.New("no output in use"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", present.ErrInvalidConfiguration, errors.Join(errs...))
	}
	return nil
}

// Valid reports whether Validate returns nil.
func (c *Configuration) Valid() bool {
	return c.Validate() == nil
}

// Equal reports whether c and d describe the same outputs in the same order.
func (c *Configuration) Equal(d *Configuration) bool {
	return slices.EqualFunc(c.Outputs, d.Outputs, Output.equal)
}

// Clone returns a deep copy of c.
func (c *Configuration) Clone() *Configuration {
	out := &Configuration{Outputs: make([]Output, len(c.Outputs))}
	for i, o := range c.Outputs {
		o.Modes = slices.Clone(o.Modes)
		out.Outputs[i] = o
	}
	return out
}
