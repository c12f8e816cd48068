// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package buffer wraps native GPU buffer objects.
//
// A Buffer owns one BufferObject. The first time it is sampled it creates a
// GPU image from the object through an ImagePlatform and caches it; Close
// releases the image and then the object, in that order.
//
// The HAL types in this package back buffer objects with gogpu/wgpu textures
// and images with texture views:
//
//	alloc := buffer.NewHALAllocator(device)
//	importer := buffer.NewImporter(buffer.NewHALImagePlatform(device))
//
//	obj, err := alloc.Allocate(buffer.Properties{
//	    Size:   image.Pt(800, 600),
//	    Format: gputypes.TextureFormatBGRA8Unorm,
//	})
//	buf := importer.Wrap(obj)
//	defer buf.Close()
//
//	if err := buf.BindForSampling(); err != nil { ... }
package buffer
