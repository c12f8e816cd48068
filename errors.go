// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import "errors"

// Error taxonomy shared by all sub-packages.
//
// Sub-packages wrap these sentinels with context, so callers should test
// with errors.Is rather than comparing values.
var (
	// ErrUnsupportedExtension is returned when the platform lacks a capability
	// a feature depends on. It is fatal to the feature, not to the process:
	// the caller must fall back or refuse.
	ErrUnsupportedExtension = errors.New("present: unsupported platform extension")

	// ErrImageCreationFailed is returned when the platform rejects a buffer
	// while creating its GPU image.
	ErrImageCreationFailed = errors.New("present: image creation failed")

	// ErrPresentation is returned when the platform swap call fails.
	ErrPresentation = errors.New("present: presentation failed")

	// ErrContext is returned when a rendering context cannot be bound to or
	// released from the calling thread.
	ErrContext = errors.New("present: rendering context error")

	// ErrInvalidConfiguration is returned when a display configuration is
	// empty or inconsistent. It is reported before any state is mutated.
	ErrInvalidConfiguration = errors.New("present: invalid or inconsistent display configuration")

	// ErrClosed is returned by operations on an object that has been closed.
	ErrClosed = errors.New("present: use of closed object")
)
