// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package timing provides clock-tagged timestamps and the per-output
// FrameClock used for frame pacing.
//
// Frame timing needs the kernel clocks CLOCK_REALTIME and CLOCK_MONOTONIC
// selected at runtime, with their exact epochs. time.Time carries neither,
// so Timestamp keeps the clock id next to a nanosecond offset and refuses
// to compare offsets measured on different clocks.
package timing
