// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !linux

package timing

import (
	"fmt"
	"time"
)

// processStart anchors the monotonic clocks on platforms without
// clock_gettime ids that match Linux. Offsets are relative to process start.
var processStart = time.Now()

func readClock(clock Clock) (time.Duration, error) {
	switch clock {
	case Realtime:
		return time.Duration(time.Now().UnixNano()), nil
	case Monotonic, MonotonicRaw, Boottime:
		return time.Since(processStart), nil
	default:
		return 0, fmt.Errorf("unsupported clock %d", int32(clock))
	}
}
