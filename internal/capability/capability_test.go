// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package capability

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSupportedProbesOnce(t *testing.T) {
	c := New()
	var calls atomic.Int32
	probe := func() bool {
		calls.Add(1)
		return true
	}

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !c.Supported("ext", probe) {
				t.Error("Supported() = false, want true")
			}
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("probe called %d times, want 1", n)
	}
}

func TestSupportedCachesNegative(t *testing.T) {
	c := New()
	calls := 0
	for range 3 {
		if c.Supported("missing", func() bool { calls++; return false }) {
			t.Error("Supported() = true, want false")
		}
	}
	if calls != 1 {
		t.Errorf("probe called %d times, want 1", calls)
	}

	supported, found := c.Lookup("missing")
	if !found || supported {
		t.Errorf("Lookup() = (%v, %v), want (false, true)", supported, found)
	}
	if c.Probes() != 1 {
		t.Errorf("Probes() = %d, want 1", c.Probes())
	}
}

func TestLookupUnknown(t *testing.T) {
	c := New()
	if _, found := c.Lookup("nothing"); found {
		t.Error("Lookup() found a capability that was never probed")
	}
}

func TestHasExtension(t *testing.T) {
	tests := []struct {
		exts string
		name string
		want bool
	}{
		{"EGL_KHR_image_base EGL_KHR_image_pixmap", "EGL_KHR_image_base", true},
		{"EGL_KHR_image_base EGL_KHR_image_pixmap", "EGL_KHR_image_pixmap", true},
		{"EGL_KHR_image_base_extended", "EGL_KHR_image_base", false},
		{"", "EGL_KHR_image_base", false},
		{"  GL_OES_EGL_image  ", "GL_OES_EGL_image", true},
	}
	for _, tt := range tests {
		if got := HasExtension(tt.exts, tt.name); got != tt.want {
			t.Errorf("HasExtension(%q, %q) = %v, want %v", tt.exts, tt.name, got, tt.want)
		}
	}
}
