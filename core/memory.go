// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/grvk/device"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MemoryPriority hints how important an allocation is to keep resident.
type MemoryPriority uint32

// Memory priorities
const (
	MemoryPriorityNormal MemoryPriority = 0x1100 + iota
	MemoryPriorityHigh
	MemoryPriorityLow
	MemoryPriorityUnused
	MemoryPriorityVeryHigh
	MemoryPriorityVeryLow
)

// MemoryAllocInfo describes a GPU memory allocation. Heaps are the
// acceptable heaps in order of preference, as reported by
// MemoryRequirements.
type MemoryAllocInfo struct {
	Size        uint64
	Alignment   uint64
	Flags       uint32
	Heaps       []uint32
	MemPriority MemoryPriority
}

// GpuMemory is an allocation of device memory.
type GpuMemory struct {
	header

	handle device.DeviceMemory
	size   uint64
	heap   uint32
}

// Type implements interface
func (*GpuMemory) Type() ObjectType {
	return ObjectTypeGpuMemory
}

// Size returns the allocation size.
func (m *GpuMemory) Size() uint64 {
	return m.size
}

// Heap returns the heap the memory was allocated from.
func (m *GpuMemory) Heap() uint32 {
	return m.heap
}

// AllocMemory allocates device memory from the first heap of info.
func AllocMemory(dev *Device, info *MemoryAllocInfo) (mem *GpuMemory, err error) {
	defer func() {
		contextOf(dev).record("grAllocMemory", err, "%+v", info)
	}()

	if !dev.valid() {
		return nil, ErrorInvalidHandle
	}
	if info == nil {
		return nil, ErrorInvalidPointer
	}

	logger := dev.ctx.log.WithFields(log.Fields{
		"size":  info.Size,
		"heaps": info.Heaps,
	})
	logger.Trace("grAllocMemory")

	if info.Size == 0 {
		return nil, ErrorInvalidMemorySize
	}
	if len(info.Heaps) == 0 {
		return nil, errors.Wrap(ErrorInvalidValue, "no heaps")
	}
	heap := info.Heaps[0]
	if heap >= MaxMemoryHeaps {
		return nil, errors.Wrapf(ErrorInvalidOrdinal, "heap %d", heap)
	}

	handle, res := dev.ctx.driver.AllocateMemory(dev.handle, device.MemoryAllocateInfo{
		AllocationSize:  info.Size,
		MemoryTypeIndex: heap,
	})
	if res != device.Success {
		logger.WithField("result", res).Warn("allocation failed")
		return nil, errorFromDevice(res)
	}

	return &GpuMemory{
		header: newHeader(dev),
		handle: handle,
		size:   info.Size,
		heap:   heap,
	}, nil
}

// FreeMemory releases device memory. Objects bound to it must not be used
// afterwards.
func FreeMemory(mem *GpuMemory) (err error) {
	defer func() {
		contextOf(mem).record("grFreeMemory", err, "")
	}()

	if mem == nil || !mem.valid() {
		return ErrorInvalidHandle
	}
	dev := mem.Device()
	dev.ctx.log.WithField("size", mem.size).Trace("grFreeMemory")
	dev.ctx.driver.FreeMemory(dev.handle, mem.handle)
	mem.released = true
	return nil
}

// BindObjectMemory binds mem at offset to obj. Images are bound for real,
// descriptor sets and pipelines need no memory and accept any binding.
func BindObjectMemory(obj Object, mem *GpuMemory, offset uint64) (err error) {
	defer func() {
		contextOf(obj).record("grBindObjectMemory", err, "%s %d", typeName(obj), offset)
	}()

	if !validObject(obj) {
		return ErrorInvalidHandle
	}
	dev := obj.Device()

	logger := dev.ctx.log.WithFields(log.Fields{
		"type":   obj.Type(),
		"offset": offset,
	})
	logger.Trace("grBindObjectMemory")

	switch o := obj.(type) {
	case *Image:
		if mem == nil || !mem.valid() || mem.Device() != dev {
			return errors.Wrap(ErrorInvalidHandle, "memory")
		}
		res := dev.ctx.driver.BindImageMemory(dev.handle, o.handle, mem.handle, offset)
		if res != device.Success {
			logger.WithField("result", res).Warn("binding failed")
			return errorFromDevice(res)
		}
		o.memory = mem
		o.offset = offset
	case *DescriptorSet, *Pipeline:
		// Nothing to do
	default:
		logger.Warn("unsupported object type")
		return ErrorUnavailable
	}
	return nil
}
