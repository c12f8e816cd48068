// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package present is the frame-presentation core of a compositor.
//
// It owns GPU-backed pixel buffers, decides when a produced frame may be
// shown, measures when it was shown, and synchronizes presentation across
// one or more physical or nested outputs. It does not render: what to draw
// is decided by the scene layer above it.
//
// # Architecture
//
// The core is split into small packages, leaves first:
//
//   - timing: clock-tagged timestamps and the per-output FrameClock
//   - dropping: backpressure notifications and the timeout frame dropper
//   - buffer: native buffer objects with a lazily created GPU image
//   - swapchain: producer/consumer buffer hand-off driving the dropping policy
//   - display: display configurations and overlapping-output grouping
//   - output: per-output surfaces that present and record frame timestamps
//   - nested: the compositor that multiplexes outputs behind one display
//   - compositor: the goroutine-per-sync-group compositing loop
//   - hostfile: a file-described host display for the nested case
//
// # Errors
//
// All packages wrap the sentinels in this package (ErrPresentation,
// ErrContext, ...) so callers can classify failures with errors.Is.
//
// # Logging
//
// By default nothing is logged. Call SetLogger to enable structured logging
// through log/slog.
package present

// Version is the current version of the module.
const Version = "0.1.0"
