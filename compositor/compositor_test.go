// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/present"
	"github.com/gogpu/present/display"
	"github.com/gogpu/present/nested"
	"github.com/gogpu/present/output"
	"github.com/gogpu/present/output/headless"
)

// memHost is a nested.Host holding its configuration in memory.
type memHost struct {
	platform *headless.Platform
	conf     *display.Configuration
}

func (h *memHost) DisplayConfig() (*display.Configuration, error) { return h.conf.Clone(), nil }
func (h *memHost) ApplyDisplayConfig(conf *display.Configuration) error {
	h.conf = conf.Clone()
	return nil
}
func (h *memHost) SetDisplayConfigChangeCallback(func()) {}
func (h *memHost) CreateSurface(spec output.SurfaceSpec) (output.NativeSurface, error) {
	return h.platform.CreateSurface(spec)
}
func (h *memHost) Platform() output.Platform { return h.platform }

func newDisplay(t *testing.T, platform *headless.Platform) *nested.Compositor {
	t.Helper()
	mk := func(id display.OutputID, x int) display.Output {
		return display.Output{
			ID:        id,
			Connected: true,
			Used:      true,
			TopLeft:   image.Pt(x, 0),
			Modes:     []display.Mode{{Size: image.Pt(320, 240), RefreshRate: 60}},
			Format:    gputypes.TextureFormatBGRA8Unorm,
		}
	}
	host := &memHost{
		platform: platform,
		conf:     &display.Configuration{Outputs: []display.Output{mk(1, 0), mk(2, 1000)}},
	}
	c, err := nested.New(host)
	if err != nil {
		t.Fatalf("nested.New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMultiThreadedPostsEveryGroup(t *testing.T) {
	platform := headless.New(headless.WithRefreshRate(500))
	d := newDisplay(t, platform)

	var rendered atomic.Int64
	m := NewMultiThreaded(d, RendererFunc(func(_ context.Context, s *output.Surface) error {
		if !s.Current() {
			return errors.New("rendering to a surface that is not current")
		}
		rendered.Add(1)
		return nil
	}))
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() error = %v, want ErrRunning", err)
	}

	waitFor(t, func() bool {
		ok := true
		d.ForEachSyncGroup(func(g *nested.SyncGroup) {
			if g.Surface().FrameClock().Read().Sequence < 3 {
				ok = false
			}
		})
		return ok
	})

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if m.Frames() < 6 {
		t.Errorf("Frames() = %d, want at least 6", m.Frames())
	}
	if rendered.Load() < 6 {
		t.Errorf("renders = %d, want at least 6", rendered.Load())
	}
	d.ForEachSyncGroup(func(g *nested.SyncGroup) {
		if g.Surface().Current() {
			t.Errorf("group %d still current after Stop", g.ID())
		}
	})
}

func TestMultiThreadedRenderError(t *testing.T) {
	d := newDisplay(t, headless.New())
	boom := errors.New("shader compile failed")

	m := NewMultiThreaded(d, RendererFunc(func(context.Context, *output.Surface) error {
		return boom
	}))
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := m.Stop(); !errors.Is(err, boom) {
		t.Errorf("Stop() error = %v, want %v", err, boom)
	}
}

func TestMultiThreadedPostError(t *testing.T) {
	platform := headless.New()
	d := newDisplay(t, platform)
	platform.SetSwapError(errors.New("surface lost"))

	m := NewMultiThreaded(d, RendererFunc(func(context.Context, *output.Surface) error { return nil }))
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := m.Stop(); !errors.Is(err, present.ErrPresentation) {
		t.Errorf("Stop() error = %v, want ErrPresentation", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	m := NewMultiThreaded(newDisplay(t, headless.New()), RendererFunc(func(context.Context, *output.Surface) error { return nil }))
	if err := m.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestRestartAfterReconfigure(t *testing.T) {
	platform := headless.New(headless.WithRefreshRate(1000))
	d := newDisplay(t, platform)
	m := NewMultiThreaded(d, RendererFunc(func(context.Context, *output.Surface) error { return nil }))

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	conf := d.Configuration()
	conf.Outputs[1].Used = false
	if err := d.Configure(conf); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() after reconfigure error = %v", err)
	}
	clock, _ := d.FrameClock(1)
	waitFor(t, func() bool { return clock.Read().Sequence > 0 })
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
