// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package buffer

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Usage describes how a buffer will be written.
type Usage uint8

const (
	// UsageHardware buffers are rendered to by the GPU.
	UsageHardware Usage = iota

	// UsageSoftware buffers are written by the CPU.
	UsageSoftware
)

// Properties describes a buffer to allocate.
type Properties struct {
	Size   image.Point
	Format gputypes.TextureFormat
	Usage  Usage
}

// Allocator creates native buffer objects.
type Allocator interface {
	Allocate(props Properties) (BufferObject, error)
}

// bytesPerPixel returns the size of one pixel in format, or false if the
// format cannot back a presentable buffer.
func bytesPerPixel(format gputypes.TextureFormat) (uint32, bool) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4, true
	}
	return 0, false
}
