// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !linux

package headless

// threadID reports a single thread for the whole process where thread ids
// are not available, so one context is current at a time.
func threadID() int {
	return 0
}
