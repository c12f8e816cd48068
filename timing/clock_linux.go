// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux

package timing

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

func readClock(clock Clock) (time.Duration, error) {
	id, ok := clock.POSIXID()
	if !ok {
		return 0, fmt.Errorf("unsupported clock %d", int32(clock))
	}
	var ts unix.Timespec
	if err := unix.ClockGettime(id, &ts); err != nil {
		return 0, err
	}
	return time.Duration(ts.Nano()), nil
}
