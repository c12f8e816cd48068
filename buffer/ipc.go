// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package buffer

// IPCPackage describes a buffer for transmission to another process.
//
// It carries only primitive identifiers; the receiving side must know how
// to reinterpret them for its platform. Marshalling it onto a wire protocol
// is the frontend's job.
type IPCPackage struct {
	Data []uint32
}
