// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package timing

import (
	"fmt"
	"time"
)

// Clock identifies a kernel clock. The zero value is Monotonic; use
// POSIXID to hand a clock to native timing APIs.
type Clock int32

// Kernel clocks.
const (
	// Monotonic is a tick clock that never jumps. Swap timestamps (UST)
	// reported by sync-control extensions are on this clock.
	Monotonic Clock = iota
	// Realtime is wall-clock time since the Unix epoch.
	Realtime
	// MonotonicRaw is Monotonic without NTP frequency adjustment.
	MonotonicRaw
	// Boottime is Monotonic including time spent suspended.
	Boottime
)

// POSIXID returns the clock_gettime id of c, or false for an unknown clock.
func (c Clock) POSIXID() (int32, bool) {
	switch c {
	case Realtime:
		return 0, true
	case Monotonic:
		return 1, true
	case MonotonicRaw:
		return 4, true
	case Boottime:
		return 7, true
	default:
		return 0, false
	}
}

// String returns the POSIX name of the clock.
func (c Clock) String() string {
	switch c {
	case Realtime:
		return "CLOCK_REALTIME"
	case Monotonic:
		return "CLOCK_MONOTONIC"
	case MonotonicRaw:
		return "CLOCK_MONOTONIC_RAW"
	case Boottime:
		return "CLOCK_BOOTTIME"
	default:
		return fmt.Sprintf("Clock(%d)", int32(c))
	}
}

// Timestamp is an instant on a specific kernel clock.
//
// Comparisons and arithmetic are only defined between timestamps of the same
// clock. Mixing clocks is a programming error and panics.
//
// The zero value is the epoch of the Monotonic clock.
type Timestamp struct {
	// Clock is the kernel clock the offset is measured on.
	Clock Clock

	// Nanoseconds is the offset from the clock's epoch.
	Nanoseconds time.Duration
}

// New returns a timestamp on clock at the given offset from its epoch.
func New(clock Clock, ns time.Duration) Timestamp {
	return Timestamp{Clock: clock, Nanoseconds: ns}
}

// FromTimespec converts a (seconds, nanoseconds) pair as returned by native
// timing APIs into a Timestamp.
func FromTimespec(clock Clock, sec, nsec int64) Timestamp {
	return Timestamp{Clock: clock, Nanoseconds: time.Duration(sec)*time.Second + time.Duration(nsec)}
}

// FromMicroseconds converts a microsecond count, the unit swap timestamps
// (UST) are reported in, into a Timestamp.
func FromMicroseconds(clock Clock, usec int64) Timestamp {
	return Timestamp{Clock: clock, Nanoseconds: time.Duration(usec) * time.Microsecond}
}

// Now reads the given kernel clock.
//
// Now panics if the clock cannot be read. Reads of supported clocks do not
// fail, so a failure means the caller passed an unsupported clock.
func Now(clock Clock) Timestamp {
	ns, err := readClock(clock)
	if err != nil {
		panic(fmt.Sprintf("timing: reading %v: %v", clock, err))
	}
	return Timestamp{Clock: clock, Nanoseconds: ns}
}

func (t Timestamp) mustMatch(u Timestamp) {
	if t.Clock != u.Clock {
		panic(fmt.Sprintf("timing: mixing timestamps of %v and %v", t.Clock, u.Clock))
	}
}

// Sub returns the duration t-u. Both timestamps must be on the same clock.
func (t Timestamp) Sub(u Timestamp) time.Duration {
	t.mustMatch(u)
	return t.Nanoseconds - u.Nanoseconds
}

// Add returns t+d on the same clock.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp{Clock: t.Clock, Nanoseconds: t.Nanoseconds + d}
}

// Before reports whether t is before u. Both must be on the same clock.
func (t Timestamp) Before(u Timestamp) bool {
	t.mustMatch(u)
	return t.Nanoseconds < u.Nanoseconds
}

// After reports whether t is after u. Both must be on the same clock.
func (t Timestamp) After(u Timestamp) bool {
	t.mustMatch(u)
	return t.Nanoseconds > u.Nanoseconds
}

// Equal reports whether t and u denote the same instant.
// Both must be on the same clock.
func (t Timestamp) Equal(u Timestamp) bool {
	t.mustMatch(u)
	return t.Nanoseconds == u.Nanoseconds
}

// Timespec splits the offset into (seconds, nanoseconds).
func (t Timestamp) Timespec() (sec, nsec int64) {
	ns := int64(t.Nanoseconds)
	return ns / int64(time.Second), ns % int64(time.Second)
}

// String formats the timestamp as "CLOCK:seconds.nanoseconds".
func (t Timestamp) String() string {
	sec, nsec := t.Timespec()
	return fmt.Sprintf("%v:%d.%09d", t.Clock, sec, nsec)
}
