// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"errors"
	"image"
	"math/rand/v2"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/present"
)

func output(id OutputID, x, y, w, h int) Output {
	return Output{
		ID:        id,
		Connected: true,
		Used:      true,
		TopLeft:   image.Pt(x, y),
		Modes:     []Mode{{Size: image.Pt(w, h), RefreshRate: 60}},
		Format:    gputypes.TextureFormatBGRA8Unorm,
	}
}

func TestExtents(t *testing.T) {
	tests := []struct {
		name        string
		orientation Orientation
		want        image.Rectangle
	}{
		{"normal", Normal, image.Rect(10, 20, 1930, 1100)},
		{"inverted", Inverted, image.Rect(10, 20, 1930, 1100)},
		{"left", Left, image.Rect(10, 20, 1090, 1940)},
		{"right", Right, image.Rect(10, 20, 1090, 1940)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := output(1, 10, 20, 1920, 1080)
			o.Orientation = tt.orientation
			if got := o.Extents(); got != tt.want {
				t.Errorf("Extents() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtentsNoMode(t *testing.T) {
	o := output(1, 5, 5, 100, 100)
	o.CurrentMode = 3
	if got := o.Extents(); !got.Empty() {
		t.Errorf("Extents() = %v, want empty", got)
	}
}

func TestOrientationString(t *testing.T) {
	tests := []struct {
		o    Orientation
		want string
	}{
		{Normal, "normal"},
		{Left, "left"},
		{Inverted, "inverted"},
		{Right, "right"},
		{45, "Orientation(45)"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Orientation(%d).String() = %q, want %q", int(tt.o), got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
		valid  bool
	}{
		{"ok", func(*Configuration) {}, true},
		{"unused disconnected output ignored", func(c *Configuration) {
			c.Outputs[1].Used = false
			c.Outputs[1].Connected = false
		}, true},
		{"nothing used", func(c *Configuration) {
			c.Outputs[0].Used = false
			c.Outputs[1].Used = false
		}, false},
		{"used but disconnected", func(c *Configuration) { c.Outputs[0].Connected = false }, false},
		{"mode out of range", func(c *Configuration) { c.Outputs[0].CurrentMode = 1 }, false},
		{"negative mode", func(c *Configuration) { c.Outputs[0].CurrentMode = -1 }, false},
		{"undefined format", func(c *Configuration) { c.Outputs[1].Format = gputypes.TextureFormatUndefined }, false},
		{"duplicate id", func(c *Configuration) { c.Outputs[1].ID = c.Outputs[0].ID }, false},
		{"bad orientation", func(c *Configuration) { c.Outputs[0].Orientation = 45 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Configuration{Outputs: []Output{output(1, 0, 0, 800, 600), output(2, 800, 0, 800, 600)}}
			tt.mutate(c)
			err := c.Validate()
			if tt.valid {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, present.ErrInvalidConfiguration) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfiguration", err)
			}
			if c.Valid() {
				t.Error("Valid() = true, want false")
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := &Configuration{Outputs: []Output{output(1, 0, 0, 800, 600)}}
	d := c.Clone()
	if !c.Equal(d) {
		t.Fatal("Clone() not Equal to original")
	}
	d.Outputs[0].Modes[0].Size = image.Pt(1, 1)
	if c.Outputs[0].Modes[0].Size != image.Pt(800, 600) {
		t.Error("Clone() shares modes with the original")
	}
	if c.Equal(d) {
		t.Error("Equal() = true after modifying the clone")
	}
}

func TestEqual(t *testing.T) {
	a := &Configuration{Outputs: []Output{output(1, 0, 0, 800, 600)}}
	b := &Configuration{Outputs: []Output{output(1, 0, 0, 800, 600)}}
	if !a.Equal(b) {
		t.Error("Equal() = false for identical configurations")
	}
	b.Outputs[0].Orientation = Left
	if a.Equal(b) {
		t.Error("Equal() = true for different orientations")
	}
	b = &Configuration{}
	if a.Equal(b) {
		t.Error("Equal() = true for different output counts")
	}
}

func groupIDs(groups []Group) [][]OutputID {
	out := make([][]OutputID, len(groups))
	for i, g := range groups {
		for _, o := range g.Outputs {
			out[i] = append(out[i], o.ID)
		}
	}
	return out
}

func TestGroupOverlapping(t *testing.T) {
	// 1 and 3 overlap, 3 and 4 overlap (so 1,3,4 cluster), 2 stands alone,
	// 5 touches 2 without overlapping, 6 is unused.
	conf := &Configuration{Outputs: []Output{
		output(4, 700, 0, 400, 400),
		output(2, 2000, 0, 500, 500),
		output(1, 0, 0, 800, 600),
		output(5, 2500, 0, 500, 500),
		output(3, 500, 0, 300, 300),
		output(6, 0, 0, 800, 600),
	}}
	conf.Outputs[5].Used = false

	want := [][]OutputID{{1, 3, 4}, {2}, {5}}
	got := groupIDs(GroupOverlapping(conf))
	if len(got) != len(want) {
		t.Fatalf("GroupOverlapping() = %v, want %v", got, want)
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("GroupOverlapping() = %v, want %v", got, want)
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("GroupOverlapping() = %v, want %v", got, want)
			}
		}
	}
}

func TestGroupOverlappingOrderIndependent(t *testing.T) {
	base := []Output{
		output(1, 0, 0, 100, 100),
		output(2, 50, 50, 100, 100),
		output(3, 500, 0, 100, 100),
		output(4, 140, 140, 100, 100),
		output(5, 1000, 1000, 10, 10),
	}
	want := groupIDs(GroupOverlapping(&Configuration{Outputs: base}))

	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		shuffled := make([]Output, len(base))
		copy(shuffled, base)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := groupIDs(GroupOverlapping(&Configuration{Outputs: shuffled}))
		if len(got) != len(want) {
			t.Fatalf("GroupOverlapping(shuffled) = %v, want %v", got, want)
		}
		for i := range want {
			for j := range want[i] {
				if got[i][j] != want[i][j] {
					t.Fatalf("GroupOverlapping(shuffled) = %v, want %v", got, want)
				}
			}
		}
	}
}

func TestGroupBounds(t *testing.T) {
	g := Group{Outputs: []Output{output(1, 0, 0, 100, 100), output(2, 50, 50, 100, 100)}}
	if got, want := g.Bounds(), image.Rect(0, 0, 150, 150); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if g.ID() != 1 {
		t.Errorf("ID() = %d, want 1", g.ID())
	}
}
