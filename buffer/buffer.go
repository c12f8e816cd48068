// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package buffer

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/present"
	"github.com/gogpu/present/internal/capability"
)

// Extensions an ImagePlatform must advertise before images are created.
const (
	// ExtImageBase allows creating GPU images from native buffer objects.
	ExtImageBase = "EGL_KHR_image_base"

	// ExtImageTexture allows sourcing a texture from a GPU image.
	ExtImageTexture = "GL_OES_EGL_image"
)

// BufferObject is a native GPU buffer object.
//
// Geometry and format are always read from the object, never stored next to
// it, so they cannot diverge from the object's real properties.
type BufferObject interface {
	Width() uint32
	Height() uint32
	Stride() uint32
	Format() gputypes.TextureFormat

	// Handle is the primitive identifier other processes can import.
	Handle() uint32

	// Destroy releases the object. It is called exactly once.
	Destroy()
}

// Image is an opaque platform image created from a BufferObject.
type Image any

// ImagePlatform creates GPU images from buffer objects and binds them as
// texture sources. Calls that need a current rendering context must be made
// from the goroutine holding it.
type ImagePlatform interface {
	// Extensions returns the space-separated list of supported extensions.
	Extensions() string

	// CreateImage creates an image backed by obj.
	CreateImage(obj BufferObject) (Image, error)

	// DestroyImage releases an image created by CreateImage.
	DestroyImage(img Image)

	// BindTexture makes img the source of the active texture.
	BindTexture(img Image) error
}

// Importer turns buffer objects into Buffers for one ImagePlatform.
//
// An Importer caches which extensions its platform supports, so a process
// normally keeps one Importer per platform.
type Importer struct {
	platform ImagePlatform
	caps     *capability.Cache
}

// NewImporter returns an Importer for platform.
func NewImporter(platform ImagePlatform) *Importer {
	return &Importer{
		platform: platform,
		caps:     capability.New(),
	}
}

// Wrap takes ownership of obj.
func (im *Importer) Wrap(obj BufferObject) *Buffer {
	return &Buffer{importer: im, obj: obj}
}

// Platform returns the image platform buffers are imported into.
func (im *Importer) Platform() ImagePlatform {
	return im.platform
}

func (im *Importer) ensureExtensions() error {
	for _, name := range []string{ExtImageBase, ExtImageTexture} {
		ok := im.caps.Supported(name, func() bool {
			supported := capability.HasExtension(im.platform.Extensions(), name)
			if !supported {
				present.Logger().Warn("buffer: image extension missing", "extension", name)
			}
			return supported
		})
		if !ok {
			return fmt.Errorf("%w: %s", present.ErrUnsupportedExtension, name)
		}
	}
	return nil
}

// Buffer owns one native buffer object and, once it has been sampled, the
// GPU image created from it.
//
// A Buffer wraps the same object for its whole lifetime. Buffer is safe for
// concurrent use.
type Buffer struct {
	importer *Importer
	obj      BufferObject

	mu       sync.Mutex
	image    Image
	hasImage bool
	closed   bool
}

// Size returns the buffer dimensions in pixels.
func (b *Buffer) Size() image.Point {
	return image.Pt(int(b.obj.Width()), int(b.obj.Height()))
}

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int {
	return int(b.obj.Stride())
}

// PixelFormat returns the pixel format of the buffer.
func (b *Buffer) PixelFormat() gputypes.TextureFormat {
	return b.obj.Format()
}

// Object returns the wrapped buffer object. Ownership stays with b.
func (b *Buffer) Object() BufferObject {
	return b.obj
}

// BindForSampling makes the buffer the source of the active texture,
// creating its GPU image on first use.
//
// Returns an error wrapping present.ErrUnsupportedExtension if the platform
// cannot import buffers, or present.ErrImageCreationFailed if it rejects
// this buffer. A failed creation leaves the buffer usable; the next call
// retries.
func (b *Buffer) BindForSampling() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return present.ErrClosed
	}
	if !b.hasImage {
		if err := b.importer.ensureExtensions(); err != nil {
			return err
		}
		img, err := b.importer.platform.CreateImage(b.obj)
		if err != nil {
			return fmt.Errorf("%w: buffer %d: %w", present.ErrImageCreationFailed, b.obj.Handle(), err)
		}
		b.image = img
		b.hasImage = true
		present.Logger().Debug("buffer: image created", "handle", b.obj.Handle())
	}
	if err := b.importer.platform.BindTexture(b.image); err != nil {
		return fmt.Errorf("%w: bind buffer %d: %w", present.ErrContext, b.obj.Handle(), err)
	}
	return nil
}

// ExportHandle returns a descriptor another process can use to import the
// buffer. It does not transfer ownership.
func (b *Buffer) ExportHandle() IPCPackage {
	return IPCPackage{Data: []uint32{b.obj.Handle()}}
}

// Close releases the GPU image, if one was created, and then the buffer
// object. Close is idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.hasImage {
		b.importer.platform.DestroyImage(b.image)
		b.image = nil
		b.hasImage = false
	}
	b.obj.Destroy()
	return nil
}
