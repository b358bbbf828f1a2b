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

// QueueRequest asks for Count queues of one type at device creation.
type QueueRequest struct {
	Type  QueueType
	Count uint32
}

// DeviceCreateInfo describes a logical device.
type DeviceCreateInfo struct {
	RequestedQueues []QueueRequest
}

// Device is a logical device created from a PhysicalGpu.
type Device struct {
	ctx    *Context
	gpu    *PhysicalGpu
	handle device.Device

	families    queueFamilies
	queueCounts map[QueueType]uint32
	queues      map[queueKey]*Queue

	destroyed bool
}

// Type implements interface
func (*Device) Type() ObjectType {
	return ObjectTypeDevice
}

func (*Device) baseObject() {}

// Gpu returns the physical GPU the device was created from.
func (d *Device) Gpu() *PhysicalGpu {
	return d.gpu
}

// Handle returns the target device handle.
func (d *Device) Handle() device.Device {
	return d.handle
}

// valid also requires the GPU, a device does not outlive its instance.
func (d *Device) valid() bool {
	return d != nil && !d.destroyed && d.gpu.valid()
}

// CreateDevice creates a logical device with exactly the queues requested.
// Each request must ask for every queue its family exposes, otherwise the
// call fails with ErrorInvalidValue before the driver is involved.
func (c *Context) CreateDevice(gpu *PhysicalGpu, info *DeviceCreateInfo) (dev *Device, err error) {
	defer func() {
		c.record("grCreateDevice", err, "%+v", info)
	}()

	if !gpu.valid() || gpu.ctx != c {
		return nil, ErrorInvalidHandle
	}
	if info == nil {
		return nil, errors.Wrap(ErrorInvalidPointer, "device create info")
	}
	if len(info.RequestedQueues) == 0 {
		return nil, errors.Wrap(ErrorInvalidValue, "no queues requested")
	}
	c.log.WithFields(log.Fields{
		"gpu":    gpu.index,
		"queues": len(info.RequestedQueues),
	}).Trace("grCreateDevice")

	families := scanQueueFamilies(c.driver, gpu.handle)

	queueInfos := make([]device.DeviceQueueCreateInfo, len(info.RequestedQueues))
	blocks := make([][]byte, 0, len(info.RequestedQueues))
	defer func() {
		for _, block := range blocks {
			c.allocCb.Free(block)
		}
	}()

	queueCounts := make(map[QueueType]uint32)
	for i, req := range info.RequestedQueues {
		logger := c.log.WithFields(log.Fields{
			"request":   i,
			"queueType": req.Type,
			"count":     req.Count,
		})

		var priorities []float32
		if req.Count > 0 {
			var block []byte
			priorities, block = c.allocCb.allocFloat32s(int(req.Count))
			if block == nil {
				if err == nil {
					err = errors.Wrapf(ErrorOutOfMemory, "queue request %d priorities", i)
				}
				continue
			}
			blocks = append(blocks, block)
			for j := range priorities {
				priorities[j] = 1.0
			}
		}

		family, known := families.lookup(req.Type)
		_, duplicate := queueCounts[req.Type]
		if !known || !family.found || duplicate || req.Count == 0 || req.Count != family.count {
			logger.WithField("available", family.count).Warn("invalid queue request")
			if err == nil {
				err = errors.Wrapf(ErrorInvalidValue, "queue request %d: %d %s queues, family has %d",
					i, req.Count, req.Type, family.count)
			}
		}
		queueCounts[req.Type] = req.Count

		queueInfos[i] = device.DeviceQueueCreateInfo{
			QueueFamilyIndex: family.index,
			QueueCount:       req.Count,
			Priorities:       priorities,
		}
	}
	if err != nil {
		return nil, err
	}

	handle, res := c.driver.CreateDevice(gpu.handle, device.DeviceCreateInfo{
		QueueCreateInfos: queueInfos,
	})
	if res != device.Success {
		c.log.WithField("result", res).Warn("device creation failed")
		return nil, ErrorInitializationFailed
	}

	return &Device{
		ctx:         c,
		gpu:         gpu,
		handle:      handle,
		families:    families,
		queueCounts: queueCounts,
		queues:      make(map[queueKey]*Queue),
	}, nil
}

// DestroyDevice destroys the target device. Objects of the device become
// invalid and must have been destroyed before.
func DestroyDevice(dev *Device) (err error) {
	defer func() {
		contextOf(dev).record("grDestroyDevice", err, "")
	}()

	if !dev.valid() {
		return ErrorInvalidHandle
	}
	dev.ctx.log.WithField("gpu", dev.gpu.index).Trace("grDestroyDevice")
	dev.ctx.driver.DestroyDevice(dev.handle)
	dev.destroyed = true
	dev.queues = nil
	return nil
}
