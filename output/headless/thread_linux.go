// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux

package headless

import "golang.org/x/sys/unix"

func threadID() int {
	return unix.Gettid()
}
