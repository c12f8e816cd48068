// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package hostfile implements a nested compositor host backed by a YAML
// display description.
//
// The file stands in for the host display server's configuration: reading
// it yields the host configuration, applying a configuration rewrites it,
// and editing it by hand is a host-initiated change that the registered
// callback is told about.
package hostfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/present"
	"github.com/gogpu/present/display"
	"github.com/gogpu/present/output"
)

// DefaultDebounce is how long the file must be quiet after a change before
// the change callback runs.
const DefaultDebounce = 50 * time.Millisecond

// Option configures a Host.
type Option func(*Host)

// WithDebounce sets how long the file must be quiet before a change is
// reported.
func WithDebounce(d time.Duration) Option {
	return func(h *Host) {
		h.debounce = d
	}
}

// Host is a nested.Host whose configuration lives in a file.
type Host struct {
	path     string
	platform output.Platform
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	callback func()
	last     []byte
	timer    *time.Timer
	closed   bool
}

// Open reads the display description at path and starts watching it.
// Surfaces are created on platform.
func Open(path string, platform output.Platform, opts ...Option) (*Host, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hostfile: %w", err)
	}
	if _, err := Decode(data); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hostfile: watch: %w", err)
	}
	// Watch the directory: editors replace files by renaming over them.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("hostfile: watch %s: %w", filepath.Dir(path), err)
	}

	h := &Host{
		path:     path,
		platform: platform,
		debounce: DefaultDebounce,
		watcher:  watcher,
		done:     make(chan struct{}),
		last:     data,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.wg.Add(1)
	go h.watch()
	return h, nil
}

func (h *Host) watch() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != h.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				h.schedule()
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			present.Logger().Warn("hostfile: watch error", "err", err)
		}
	}
}

func (h *Host) schedule() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.debounce, h.changed)
}

// changed reports the file content to the callback unless it is what the
// host last read or wrote.
func (h *Host) changed() {
	data, err := os.ReadFile(h.path)
	if err != nil {
		present.Logger().Debug("hostfile: reread failed", "err", err)
		return
	}

	h.mu.Lock()
	if h.closed || bytes.Equal(data, h.last) {
		h.mu.Unlock()
		return
	}
	h.last = data
	cb := h.callback
	h.mu.Unlock()

	present.Logger().Info("hostfile: display configuration changed", "path", h.path)
	if cb != nil {
		cb()
	}
}

// DisplayConfig reads the configuration from the file.
func (h *Host) DisplayConfig() (*display.Configuration, error) {
	return ReadFile(h.path)
}

// ApplyDisplayConfig writes conf to the file. The write is not reported to
// the change callback.
func (h *Host) ApplyDisplayConfig(conf *display.Configuration) error {
	data, err := Encode(conf)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return present.ErrClosed
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("hostfile: %w", err)
	}
	h.last = data
	return nil
}

// SetDisplayConfigChangeCallback sets the function called after the file
// changes. A nil cb removes it.
func (h *Host) SetDisplayConfigChangeCallback(cb func()) {
	h.mu.Lock()
	h.callback = cb
	h.mu.Unlock()
}

// CreateSurface creates a surface on the host platform.
func (h *Host) CreateSurface(spec output.SurfaceSpec) (output.NativeSurface, error) {
	return h.platform.CreateSurface(spec)
}

// Platform returns the platform surfaces are created on.
func (h *Host) Platform() output.Platform {
	return h.platform
}

// Path returns the path of the display description.
func (h *Host) Path() string {
	return h.path
}

// Close stops watching the file.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	if h.timer != nil {
		h.timer.Stop()
	}
	h.mu.Unlock()

	close(h.done)
	err := h.watcher.Close()
	h.wg.Wait()
	return err
}
