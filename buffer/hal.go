// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package buffer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// rowAlignment is the row pitch alignment HAL texture copies require.
const rowAlignment = 256

// HAL backend errors.
var (
	// ErrNilHALDevice is returned when a HAL type is used without a device.
	ErrNilHALDevice = errors.New("buffer: HAL device is nil")

	// ErrNotHALBuffer is returned when a HAL image platform is handed a
	// buffer object it did not allocate.
	ErrNotHALBuffer = errors.New("buffer: not a HAL buffer object")

	// ErrUnsupportedFormat is returned for formats that cannot back a buffer.
	ErrUnsupportedFormat = errors.New("buffer: unsupported pixel format")

	// ErrNoHALProvider is returned when a device provider does not expose
	// its HAL device.
	ErrNoHALProvider = errors.New("buffer: provider does not expose HAL types")
)

// HALAllocator allocates buffer objects as HAL textures.
//
// HALAllocator is safe for concurrent use.
type HALAllocator struct {
	device hal.Device
	next   atomic.Uint32
}

// NewHALAllocator returns an allocator creating textures on device.
func NewHALAllocator(device hal.Device) *HALAllocator {
	return &HALAllocator{device: device}
}

// Allocate creates a 2D texture usable both as a render attachment and as a
// sampled texture.
func (a *HALAllocator) Allocate(props Properties) (BufferObject, error) {
	if a.device == nil {
		return nil, ErrNilHALDevice
	}
	if props.Size.X <= 0 || props.Size.Y <= 0 {
		return nil, fmt.Errorf("buffer: invalid size %v", props.Size)
	}
	bpp, ok := bytesPerPixel(props.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, props.Format)
	}

	usage := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
	if props.Usage == UsageHardware {
		usage |= gputypes.TextureUsageRenderAttachment
	}

	handle := a.next.Add(1)
	width, height := uint32(props.Size.X), uint32(props.Size.Y) //nolint:gosec // checked positive above
	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label: fmt.Sprintf("present_buffer_%d", handle),
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        props.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("buffer: create texture: %w", err)
	}

	return &HALBufferObject{
		device:  a.device,
		texture: tex,
		width:   width,
		height:  height,
		stride:  alignRow(width * bpp),
		format:  props.Format,
		handle:  handle,
	}, nil
}

func alignRow(n uint32) uint32 {
	return (n + rowAlignment - 1) / rowAlignment * rowAlignment
}

// HALBufferObject is a BufferObject backed by a HAL texture.
type HALBufferObject struct {
	device  hal.Device
	texture hal.Texture
	width   uint32
	height  uint32
	stride  uint32
	format  gputypes.TextureFormat
	handle  uint32

	destroyOnce sync.Once
}

// Width returns the texture width.
func (o *HALBufferObject) Width() uint32 { return o.width }

// Height returns the texture height.
func (o *HALBufferObject) Height() uint32 { return o.height }

// Stride returns the aligned row pitch used when copying into the texture.
func (o *HALBufferObject) Stride() uint32 { return o.stride }

// Format returns the texture format.
func (o *HALBufferObject) Format() gputypes.TextureFormat { return o.format }

// Handle returns the allocator-unique handle of the texture.
func (o *HALBufferObject) Handle() uint32 { return o.handle }

// Texture returns the underlying HAL texture.
func (o *HALBufferObject) Texture() hal.Texture { return o.texture }

// Destroy releases the texture.
func (o *HALBufferObject) Destroy() {
	o.destroyOnce.Do(func() {
		o.device.DestroyTexture(o.texture)
	})
}

// halImage is the Image a HALImagePlatform hands out.
type halImage struct {
	view hal.TextureView
}

// HALImagePlatform creates texture views as GPU images and records the view
// bound for sampling, which a renderer reads when building its bind group.
type HALImagePlatform struct {
	device hal.Device

	mu    sync.Mutex
	bound *halImage
}

// NewHALImagePlatform returns an image platform on device.
func NewHALImagePlatform(device hal.Device) *HALImagePlatform {
	return &HALImagePlatform{device: device}
}

// Extensions reports the image extensions HAL texture views provide.
func (p *HALImagePlatform) Extensions() string {
	return ExtImageBase + " " + ExtImageTexture
}

// CreateImage creates a view of the texture backing obj.
func (p *HALImagePlatform) CreateImage(obj BufferObject) (Image, error) {
	if p.device == nil {
		return nil, ErrNilHALDevice
	}
	o, ok := obj.(*HALBufferObject)
	if !ok {
		return nil, ErrNotHALBuffer
	}
	view, err := p.device.CreateTextureView(o.texture, &hal.TextureViewDescriptor{
		Label: fmt.Sprintf("present_buffer_%d_view", o.handle),
	})
	if err != nil {
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	return &halImage{view: view}, nil
}

// DestroyImage releases a view created by CreateImage.
func (p *HALImagePlatform) DestroyImage(img Image) {
	hi, ok := img.(*halImage)
	if !ok || hi == nil {
		return
	}
	p.mu.Lock()
	if p.bound == hi {
		p.bound = nil
	}
	p.mu.Unlock()

	p.device.DestroyTextureView(hi.view)
}

// BindTexture records img as the active texture source.
func (p *HALImagePlatform) BindTexture(img Image) error {
	hi, ok := img.(*halImage)
	if !ok || hi == nil {
		return ErrNotHALBuffer
	}
	p.mu.Lock()
	p.bound = hi
	p.mu.Unlock()
	return nil
}

// Bound returns the view of the image last bound. The second result is false
// if nothing is bound or the bound image has been destroyed.
func (p *HALImagePlatform) Bound() (hal.TextureView, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bound == nil {
		return nil, false
	}
	return p.bound.view, true
}

// NewHALImporterFromProvider builds an Importer and an Allocator on the HAL
// device of a shared device provider. The provider must expose
// HalDevice() any returning a hal.Device.
func NewHALImporterFromProvider(provider gpucontext.DeviceProvider) (*Importer, *HALAllocator, error) {
	type halProvider interface {
		HalDevice() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	return NewImporter(NewHALImagePlatform(device)), NewHALAllocator(device), nil
}
