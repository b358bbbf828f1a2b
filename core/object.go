// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ObjectType is the type tag every legacy object reports.
type ObjectType uint32

// Object types
const (
	ObjectTypeDevice ObjectType = 0x2800 + iota
	ObjectTypeQueue
	ObjectTypeGpuMemory
	ObjectTypeImage
	ObjectTypeDescriptorSet
	ObjectTypePipeline
	ObjectTypeCommandBuffer
	ObjectTypePhysicalGpu
)

var objectTypeNames = map[ObjectType]string{
	ObjectTypeDevice:        "device",
	ObjectTypeQueue:         "queue",
	ObjectTypeGpuMemory:     "gpu memory",
	ObjectTypeImage:         "image",
	ObjectTypeDescriptorSet: "descriptor set",
	ObjectTypePipeline:      "pipeline",
	ObjectTypeCommandBuffer: "command buffer",
	ObjectTypePhysicalGpu:   "physical gpu",
}

func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// BaseObject is any handle handed out by the core. The set of
// implementations is closed: *PhysicalGpu, *Device, *Queue and every Object.
type BaseObject interface {
	// Type returns the fixed type tag of the concrete object
	Type() ObjectType

	baseObject()
}

// Object is a BaseObject owned by a Device: *GpuMemory, *Image,
// *DescriptorSet, *Pipeline and *CommandBuffer.
type Object interface {
	BaseObject

	// Device returns the owning device
	Device() *Device

	object()
}

// header is embedded in every Object. The owning device is set by the
// constructor and outlives the object.
type header struct {
	device   *Device
	released bool
}

func newHeader(dev *Device) header {
	return header{device: dev}
}

// Device implements interface
func (h *header) Device() *Device {
	return h.device
}

func (*header) baseObject() {}
func (*header) object()     {}

// valid reports whether the object and its device can still be used.
func (h *header) valid() bool {
	return !h.released && h.device.valid()
}

// isNilObject reports whether obj is nil, including typed nil pointers.
func isNilObject(obj BaseObject) bool {
	switch o := obj.(type) {
	case nil:
		return true
	case *PhysicalGpu:
		return o == nil
	case *Device:
		return o == nil
	case *Queue:
		return o == nil
	case *GpuMemory:
		return o == nil
	case *Image:
		return o == nil
	case *DescriptorSet:
		return o == nil
	case *Pipeline:
		return o == nil
	case *CommandBuffer:
		return o == nil
	}
	return false
}

// validObject reports whether obj can be used in a generic operation.
func validObject(obj BaseObject) bool {
	if isNilObject(obj) {
		return false
	}
	switch o := obj.(type) {
	case *PhysicalGpu:
		return o.valid()
	case *Device:
		return o.valid()
	case *Queue:
		return o.device.valid()
	case *GpuMemory:
		return o.valid()
	case *Image:
		return o.valid()
	case *DescriptorSet:
		return o.valid()
	case *Pipeline:
		return o.valid()
	case *CommandBuffer:
		return o.valid()
	}
	return false
}

// contextOf returns the context obj belongs to, nil for nil objects.
func contextOf(obj BaseObject) *Context {
	if isNilObject(obj) {
		return nil
	}
	switch o := obj.(type) {
	case *PhysicalGpu:
		return o.ctx
	case *Device:
		return o.ctx
	case *Queue:
		return o.device.ctx
	case Object:
		return o.Device().ctx
	}
	return nil
}

// typeName names the type of obj for traces, which also see nil objects.
func typeName(obj BaseObject) string {
	if obj == nil {
		return "<nil>"
	}
	return obj.Type().String()
}

// DestroyObject releases the target objects backing obj. Memory is
// released with FreeMemory instead.
func DestroyObject(obj Object) (err error) {
	defer func() {
		contextOf(obj).record("grDestroyObject", err, "%s", typeName(obj))
	}()

	if !validObject(obj) {
		return ErrorInvalidHandle
	}
	dev := obj.Device()
	dev.ctx.log.WithField("type", obj.Type()).Trace("grDestroyObject")

	drv := dev.ctx.driver
	switch o := obj.(type) {
	case *Image:
		drv.DestroyImage(dev.handle, o.handle)
		o.released = true
	case *CommandBuffer:
		o.destroy()
	case *Pipeline:
		drv.DestroyPipeline(dev.handle, o.handle)
		o.released = true
	case *DescriptorSet:
		o.released = true
	case *GpuMemory:
		dev.ctx.log.WithFields(log.Fields{"type": obj.Type()}).Warn("memory must be released with grFreeMemory")
		return errors.Wrap(ErrorInvalidObjectType, "destroy object")
	default:
		return ErrorInvalidObjectType
	}
	return nil
}
