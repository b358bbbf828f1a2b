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

// GpuType is the legacy kind of a GPU.
type GpuType uint32

// GPU types
const (
	GpuTypeOther      GpuType = 0x3000
	GpuTypeIntegrated GpuType = 0x3001
	GpuTypeDiscrete   GpuType = 0x3002
	GpuTypeVirtual    GpuType = 0x3003
)

// PhysicalGpuProperties describe a GPU.
type PhysicalGpuProperties struct {
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32
	GpuType       GpuType
	GpuName       string
}

// QueueProperties describe the queues of one legacy type on a GPU.
type QueueProperties struct {
	QueueType          QueueType
	QueueCount         uint32
	MaxAtomicCounters  uint32
	SupportsTimestamps bool
}

func gpuTypeFromDevice(t device.PhysicalDeviceType) GpuType {
	switch t {
	case device.PhysicalDeviceTypeIntegratedGpu:
		return GpuTypeIntegrated
	case device.PhysicalDeviceTypeDiscreteGpu:
		return GpuTypeDiscrete
	case device.PhysicalDeviceTypeVirtualGpu:
		return GpuTypeVirtual
	}
	return GpuTypeOther
}

func (p PhysicalGpuProperties) encode(data []byte) {
	binary.LittleEndian.PutUint32(data[0:], p.APIVersion)
	binary.LittleEndian.PutUint32(data[4:], p.DriverVersion)
	binary.LittleEndian.PutUint32(data[8:], p.VendorID)
	binary.LittleEndian.PutUint32(data[12:], p.DeviceID)
	binary.LittleEndian.PutUint32(data[16:], uint32(p.GpuType))
	name := data[20 : 20+maxGpuNameLength]
	for i := range name {
		name[i] = 0
	}
	// keep the terminating zero
	copy(name[:maxGpuNameLength-1], p.GpuName)
}

// DecodePhysicalGpuProperties reads properties written by GetGpuInfo.
func DecodePhysicalGpuProperties(data []byte) (PhysicalGpuProperties, error) {
	if len(data) < PhysicalGpuPropertiesSize {
		return PhysicalGpuProperties{}, ErrorInvalidMemorySize
	}
	name := data[20 : 20+maxGpuNameLength]
	end := 0
	for end < len(name) && name[end] != 0 {
		end++
	}
	return PhysicalGpuProperties{
		APIVersion:    binary.LittleEndian.Uint32(data[0:]),
		DriverVersion: binary.LittleEndian.Uint32(data[4:]),
		VendorID:      binary.LittleEndian.Uint32(data[8:]),
		DeviceID:      binary.LittleEndian.Uint32(data[12:]),
		GpuType:       GpuType(binary.LittleEndian.Uint32(data[16:])),
		GpuName:       string(name[:end]),
	}, nil
}

func (q QueueProperties) encode(data []byte) {
	binary.LittleEndian.PutUint32(data[0:], uint32(q.QueueType))
	binary.LittleEndian.PutUint32(data[4:], q.QueueCount)
	binary.LittleEndian.PutUint32(data[8:], q.MaxAtomicCounters)
	var timestamps uint32
	if q.SupportsTimestamps {
		timestamps = 1
	}
	binary.LittleEndian.PutUint32(data[12:], timestamps)
}

// DecodeQueueProperties reads the queue property array written by GetGpuInfo.
func DecodeQueueProperties(data []byte) ([]QueueProperties, error) {
	if len(data)%QueuePropertiesSize != 0 {
		return nil, ErrorInvalidMemorySize
	}
	props := make([]QueueProperties, len(data)/QueuePropertiesSize)
	for i := range props {
		entry := data[i*QueuePropertiesSize:]
		props[i] = QueueProperties{
			QueueType:          QueueType(binary.LittleEndian.Uint32(entry[0:])),
			QueueCount:         binary.LittleEndian.Uint32(entry[4:]),
			MaxAtomicCounters:  binary.LittleEndian.Uint32(entry[8:]),
			SupportsTimestamps: binary.LittleEndian.Uint32(entry[12:]) != 0,
		}
	}
	return props, nil
}

func (g *PhysicalGpu) queueProperties() []QueueProperties {
	families := scanQueueFamilies(g.ctx.driver, g.handle)
	var props []QueueProperties
	for _, t := range families.types() {
		family, _ := families.lookup(t)
		props = append(props, QueueProperties{
			QueueType:  t,
			QueueCount: family.count,
		})
	}
	return props
}

// GetGpuInfo writes information about gpu into data, with the same size
// protocol as GetObjectInfo. Queue properties hold one entry per legacy
// queue type the GPU exposes.
func GetGpuInfo(gpu *PhysicalGpu, infoType InfoType, dataSize *int, data []byte) (err error) {
	defer func() {
		contextOf(gpu).record("grGetGpuInfo", err, "0x%X %d %t", uint32(infoType), sizeArg(dataSize), data != nil)
	}()

	if !gpu.valid() {
		return ErrorInvalidHandle
	}
	if dataSize == nil {
		return ErrorInvalidPointer
	}

	logger := gpu.ctx.log.WithFields(log.Fields{
		"gpu":      gpu.index,
		"infoType": infoType,
	})
	logger.Trace("grGetGpuInfo")

	switch infoType {
	case InfoTypePhysicalGpuProperties:
		if data == nil {
			*dataSize = PhysicalGpuPropertiesSize
			return nil
		} else if *dataSize != PhysicalGpuPropertiesSize || len(data) < *dataSize {
			return ErrorInvalidMemorySize
		}

		props := gpu.ctx.driver.GetPhysicalDeviceProperties(gpu.handle)
		PhysicalGpuProperties{
			APIVersion:    props.APIVersion,
			DriverVersion: props.DriverVersion,
			VendorID:      props.VendorID,
			DeviceID:      props.DeviceID,
			GpuType:       gpuTypeFromDevice(props.DeviceType),
			GpuName:       props.DeviceName,
		}.encode(data)
	case InfoTypePhysicalGpuQueueProperties:
		props := gpu.queueProperties()
		size := len(props) * QueuePropertiesSize
		if data == nil {
			*dataSize = size
			return nil
		} else if *dataSize != size || len(data) < *dataSize {
			return ErrorInvalidMemorySize
		}
		for i, p := range props {
			p.encode(data[i*QueuePropertiesSize:])
		}
	default:
		logger.Warn("unsupported info type")
		return errors.Wrapf(ErrorInvalidValue, "info type 0x%X", uint32(infoType))
	}
	return nil
}

// GpuProperties runs both phases of GetGpuInfo for the GPU properties.
func GpuProperties(gpu *PhysicalGpu) (PhysicalGpuProperties, error) {
	var size int
	if err := GetGpuInfo(gpu, InfoTypePhysicalGpuProperties, &size, nil); err != nil {
		return PhysicalGpuProperties{}, err
	}
	data := make([]byte, size)
	if err := GetGpuInfo(gpu, InfoTypePhysicalGpuProperties, &size, data); err != nil {
		return PhysicalGpuProperties{}, err
	}
	return DecodePhysicalGpuProperties(data)
}

// GpuQueueProperties runs both phases of GetGpuInfo for the queue properties.
func GpuQueueProperties(gpu *PhysicalGpu) ([]QueueProperties, error) {
	var size int
	if err := GetGpuInfo(gpu, InfoTypePhysicalGpuQueueProperties, &size, nil); err != nil {
		return nil, err
	}
	data := make([]byte, size)
	if err := GetGpuInfo(gpu, InfoTypePhysicalGpuQueueProperties, &size, data); err != nil {
		return nil, err
	}
	return DecodeQueueProperties(data)
}
