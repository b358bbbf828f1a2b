// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"encoding/binary"

	"github.com/devblok/grvk/device"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Wire sizes of the structures returned by GetObjectInfo and GetGpuInfo.
const (
	MemoryRequirementsSize    = 56
	PhysicalGpuPropertiesSize = 276
	QueuePropertiesSize       = 16

	maxGpuNameLength = 256
)

// MemoryRequirements describe the memory an object must be bound to.
// Heaps lists HeapCount heap indices, the rest is zero.
type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
	HeapCount uint32
	Heaps     [MaxMemoryHeaps]uint32
}

// placeholderRequirements are reported by objects that need no memory.
var placeholderRequirements = MemoryRequirements{
	Size:      4,
	Alignment: 4,
	HeapCount: 0,
}

// memoryRequirementsFromDevice derives heaps from the memory type mask,
// memory type i is exposed as heap i.
func memoryRequirementsFromDevice(req device.MemoryRequirements) MemoryRequirements {
	reqs := MemoryRequirements{
		Size:      req.Size,
		Alignment: req.Alignment,
	}
	for i := uint32(0); i < MaxMemoryHeaps; i++ {
		if req.MemoryTypeBits&(1<<i) != 0 {
			reqs.Heaps[reqs.HeapCount] = i
			reqs.HeapCount++
		}
	}
	return reqs
}

func (m MemoryRequirements) encode(data []byte) {
	binary.LittleEndian.PutUint64(data[0:], m.Size)
	binary.LittleEndian.PutUint64(data[8:], m.Alignment)
	binary.LittleEndian.PutUint32(data[16:], m.HeapCount)
	for i, heap := range m.Heaps {
		binary.LittleEndian.PutUint32(data[20+4*i:], heap)
	}
	// trailing padding
	binary.LittleEndian.PutUint32(data[52:], 0)
}

// DecodeMemoryRequirements reads MemoryRequirements written by GetObjectInfo.
func DecodeMemoryRequirements(data []byte) (MemoryRequirements, error) {
	if len(data) < MemoryRequirementsSize {
		return MemoryRequirements{}, ErrorInvalidMemorySize
	}
	m := MemoryRequirements{
		Size:      binary.LittleEndian.Uint64(data[0:]),
		Alignment: binary.LittleEndian.Uint64(data[8:]),
		HeapCount: binary.LittleEndian.Uint32(data[16:]),
	}
	for i := range m.Heaps {
		m.Heaps[i] = binary.LittleEndian.Uint32(data[20+4*i:])
	}
	return m, nil
}

// sizeArg is the size passed to an info query, -1 when none was.
func sizeArg(dataSize *int) int {
	if dataSize == nil {
		return -1
	}
	return *dataSize
}

// GetObjectInfo writes information about obj into data. When data is nil
// only the required size is stored in dataSize. Otherwise *dataSize must
// be exactly the size of the requested structure.
func GetObjectInfo(obj BaseObject, infoType InfoType, dataSize *int, data []byte) (err error) {
	ctx := contextOf(obj)
	defer func() {
		ctx.record("grGetObjectInfo", err, "%s 0x%X %d %t", typeName(obj), uint32(infoType), sizeArg(dataSize), data != nil)
	}()

	if !validObject(obj) {
		return ErrorInvalidHandle
	}
	if dataSize == nil {
		return ErrorInvalidPointer
	}

	logger := ctx.log.WithFields(log.Fields{
		"type":     obj.Type(),
		"infoType": infoType,
	})
	logger.Trace("grGetObjectInfo")

	switch infoType {
	case InfoTypeMemoryRequirements:
		if data == nil {
			*dataSize = MemoryRequirementsSize
			return nil
		} else if *dataSize != MemoryRequirementsSize || len(data) < *dataSize {
			return ErrorInvalidMemorySize
		}

		var reqs MemoryRequirements
		switch o := obj.(type) {
		case *Image:
			dev := o.Device()
			reqs = memoryRequirementsFromDevice(ctx.driver.GetImageMemoryRequirements(dev.handle, o.handle))
		case *DescriptorSet, *Pipeline:
			reqs = placeholderRequirements
		default:
			logger.Warn("unsupported object type for info type")
			return errors.Wrapf(ErrorInvalidValue, "memory requirements of %s", obj.Type())
		}
		reqs.encode(data)
	default:
		logger.Warn("unsupported info type")
		return errors.Wrapf(ErrorInvalidValue, "info type 0x%X", uint32(infoType))
	}
	return nil
}

// MemoryRequirementsOf runs both phases of GetObjectInfo for the memory
// requirements of obj.
func MemoryRequirementsOf(obj BaseObject) (MemoryRequirements, error) {
	var size int
	if err := GetObjectInfo(obj, InfoTypeMemoryRequirements, &size, nil); err != nil {
		return MemoryRequirements{}, err
	}
	data := make([]byte, size)
	if err := GetObjectInfo(obj, InfoTypeMemoryRequirements, &size, data); err != nil {
		return MemoryRequirements{}, err
	}
	return DecodeMemoryRequirements(data)
}
