// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hostfile

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/present/display"
	"github.com/gogpu/present/nested"
	"github.com/gogpu/present/output"
	"github.com/gogpu/present/output/headless"
)

const sample = `outputs:
  - id: 1
    connected: true
    used: true
    x: 0
    y: 0
    modes:
      - {width: 800, height: 600, refresh: 60}
    current_mode: 0
    format: bgra8unorm
  - id: 2
    connected: true
    used: false
    x: 800
    y: 0
    modes:
      - {width: 1024, height: 768}
    format: RGBA8Unorm
    orientation: 270
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "host.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDecode(t *testing.T) {
	conf, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(conf.Outputs) != 2 {
		t.Fatalf("len(Outputs) = %d, want 2", len(conf.Outputs))
	}
	first, second := conf.Outputs[0], conf.Outputs[1]
	if first.Format != gputypes.TextureFormatBGRA8Unorm || !first.Used {
		t.Errorf("first output = %+v", first)
	}
	if got, want := first.Extents(), image.Rect(0, 0, 800, 600); got != want {
		t.Errorf("Extents() = %v, want %v", got, want)
	}
	if second.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("second format = %v, want RGBA8Unorm", second.Format)
	}
	if second.Orientation != display.Right {
		t.Errorf("second orientation = %v, want right", second.Orientation)
	}
	if !conf.Valid() {
		t.Errorf("Validate() = %v", conf.Validate())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "outputs: [\n"},
		{"unknown format", "outputs:\n  - id: 1\n    format: yuv420\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Error("Decode() succeeded, want error")
			}
		})
	}
	_, err := Decode([]byte("outputs:\n  - id: 1\n    format: yuv420\n"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Decode() error = %v, want ErrUnknownFormat", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	conf, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	data, err := Encode(conf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !conf.Equal(back) {
		t.Errorf("Decode(Encode()) = %+v, want %+v", back, conf)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.yaml"), headless.New())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open() error = %v, want ErrNotExist", err)
	}
}

func TestApplyDisplayConfigNotReported(t *testing.T) {
	path := writeSample(t, sample)
	h, err := Open(path, headless.New(), WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	called := make(chan struct{}, 4)
	h.SetDisplayConfigChangeCallback(func() { called <- struct{}{} })

	conf, err := h.DisplayConfig()
	if err != nil {
		t.Fatalf("DisplayConfig() error = %v", err)
	}
	conf.Outputs[1].Used = true
	if err := h.ApplyDisplayConfig(conf); err != nil {
		t.Fatalf("ApplyDisplayConfig() error = %v", err)
	}

	select {
	case <-called:
		t.Error("change callback fired for our own write")
	case <-time.After(200 * time.Millisecond):
	}

	back, err := h.DisplayConfig()
	if err != nil {
		t.Fatalf("DisplayConfig() error = %v", err)
	}
	if !back.Equal(conf) {
		t.Errorf("DisplayConfig() = %+v, want %+v", back, conf)
	}
}

func TestExternalChangeReported(t *testing.T) {
	path := writeSample(t, sample)
	h, err := Open(path, headless.New(), WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	called := make(chan struct{}, 4)
	h.SetDisplayConfigChangeCallback(func() { called <- struct{}{} })

	conf, _ := Decode([]byte(sample))
	conf.Outputs[0].TopLeft = image.Pt(10, 10)
	if err := WriteFile(path, conf); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("change callback not called")
	}
}

func TestCreateSurfaceUsesPlatform(t *testing.T) {
	platform := headless.New()
	h, err := Open(writeSample(t, sample), platform)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	if h.Platform() != output.Platform(platform) {
		t.Error("Platform() is not the platform passed to Open")
	}
	if _, err := h.CreateSurface(output.SurfaceSpec{Output: 1, Size: image.Pt(10, 10)}); err != nil {
		t.Fatalf("CreateSurface() error = %v", err)
	}
	if got := platform.Stats().SurfacesCreated; got != 1 {
		t.Errorf("SurfacesCreated = %d, want 1", got)
	}
}

func TestNestedCompositorFollowsFile(t *testing.T) {
	path := writeSample(t, sample)
	h, err := Open(path, headless.New(), WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	c, err := nested.New(h)
	if err != nil {
		t.Fatalf("nested.New() error = %v", err)
	}
	defer c.Close()
	if got := len(c.SyncGroups()); got != 1 {
		t.Fatalf("len(SyncGroups()) = %d, want 1", got)
	}

	conf, _ := Decode([]byte(sample))
	conf.Outputs[1].Used = true
	if err := WriteFile(path, conf); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(c.SyncGroups()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("len(SyncGroups()) = %d after host change, want 2", len(c.SyncGroups()))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCloseIdempotent(t *testing.T) {
	h, err := Open(writeSample(t, sample), headless.New())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
