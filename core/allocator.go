// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "unsafe"

// AllocType tells an allocator what a system memory block is used for.
type AllocType uint32

// Allocation types
const (
	AllocTypeAPIObject AllocType = iota
	AllocTypeInternal
	AllocTypeInternalTemp
	AllocTypeInternalShader
	AllocTypeDebug
)

// AllocFunc returns a block of exactly size bytes whose first byte is
// aligned to alignment, or nil when it cannot.
type AllocFunc func(size, alignment uintptr, allocType AllocType) []byte

// FreeFunc releases a block returned by the matching AllocFunc.
type FreeFunc func(mem []byte)

// AllocCallbacks are the system memory callbacks a Context allocates
// transient translation data with.
type AllocCallbacks struct {
	Alloc AllocFunc
	Free  FreeFunc
}

// DefaultAllocCallbacks allocate aligned blocks from the Go heap. Free is a
// no-op, the garbage collector reclaims released blocks.
var DefaultAllocCallbacks = AllocCallbacks{
	Alloc: alignedAlloc,
	Free:  func([]byte) {},
}

func alignedAlloc(size, alignment uintptr, _ AllocType) []byte {
	if size == 0 {
		return nil
	}
	if alignment == 0 {
		alignment = 1
	}
	if alignment&(alignment-1) != 0 {
		return nil
	}

	buf := make([]byte, size+alignment-1)
	misalignment := uintptr(unsafe.Pointer(unsafe.SliceData(buf))) & (alignment - 1)
	offset := (alignment - misalignment) & (alignment - 1)
	return buf[offset : offset+size : offset+size]
}

// allocFloat32s allocates n float32 values through the callbacks. The
// returned block must be handed back to Free.
func (a AllocCallbacks) allocFloat32s(n int) ([]float32, []byte) {
	const size = unsafe.Sizeof(float32(0))
	block := a.Alloc(uintptr(n)*size, size, AllocTypeInternalTemp)
	if uintptr(len(block)) < uintptr(n)*size {
		if block != nil {
			a.Free(block)
		}
		return nil, nil
	}
	// A misaligned block cannot back a float32 slice.
	if uintptr(unsafe.Pointer(unsafe.SliceData(block)))&(size-1) != 0 {
		a.Free(block)
		return nil, nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(block))), n), block
}
