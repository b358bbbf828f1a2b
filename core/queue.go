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

const universalFlags = device.QueueGraphicsBit | device.QueueComputeBit

type queueFamily struct {
	index uint32
	count uint32
	found bool
}

// queueFamilies resolves legacy queue types to target queue families.
type queueFamilies struct {
	universal queueFamily
	compute   queueFamily
}

// scanQueueFamilies records the first family with graphics and compute
// as universal and the first compute family without graphics as compute.
func scanQueueFamilies(driver device.Driver, physicalDevice device.PhysicalDevice) queueFamilies {
	var count uint32
	driver.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &count, nil)
	properties := make([]device.QueueFamilyProperties, count)
	driver.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &count, properties)

	var families queueFamilies
	for i, p := range properties[:min(int(count), len(properties))] {
		if p.QueueFlags&universalFlags == universalFlags {
			if !families.universal.found {
				families.universal = queueFamily{index: uint32(i), count: p.QueueCount, found: true}
			}
		} else if p.QueueFlags&device.QueueComputeBit != 0 {
			if !families.compute.found {
				families.compute = queueFamily{index: uint32(i), count: p.QueueCount, found: true}
			}
		}
	}
	return families
}

// lookup returns the family of a queue type. ok is false for unknown
// queue types; family.found is false when the GPU has no such family.
func (q queueFamilies) lookup(queueType QueueType) (family queueFamily, ok bool) {
	switch queueType {
	case QueueUniversal:
		return q.universal, true
	case QueueCompute:
		return q.compute, true
	}
	return queueFamily{}, false
}

// types returns the legacy queue types present on the GPU, in order.
func (q queueFamilies) types() []QueueType {
	var types []QueueType
	if q.universal.found {
		types = append(types, QueueUniversal)
	}
	if q.compute.found {
		types = append(types, QueueCompute)
	}
	return types
}

type queueKey struct {
	queueType QueueType
	index     uint32
}

// Queue is a queue of a Device.
type Queue struct {
	device    *Device
	handle    device.Queue
	queueType QueueType
	index     uint32
}

// Type implements interface
func (*Queue) Type() ObjectType {
	return ObjectTypeQueue
}

func (*Queue) baseObject() {}

// QueueType returns the legacy type of the queue.
func (q *Queue) QueueType() QueueType {
	return q.queueType
}

// Index returns the index of the queue in its family.
func (q *Queue) Index() uint32 {
	return q.index
}

// Handle returns the target queue handle.
func (q *Queue) Handle() device.Queue {
	return q.handle
}

// GetDeviceQueue returns queue queueIndex of the given type. The index
// must be below the number of queues the device was created with.
func GetDeviceQueue(dev *Device, queueType QueueType, queueIndex uint32) (queue *Queue, err error) {
	defer func() {
		contextOf(dev).record("grGetDeviceQueue", err, "%s %d", queueType, queueIndex)
	}()

	if !dev.valid() {
		return nil, ErrorInvalidHandle
	}

	logger := dev.ctx.log.WithFields(log.Fields{
		"queueType": queueType,
		"index":     queueIndex,
	})
	logger.Trace("grGetDeviceQueue")

	family, ok := dev.families.lookup(queueType)
	if !ok {
		logger.Warn("unsupported queue type")
		return nil, ErrorInvalidQueueType
	}
	if queueIndex >= dev.queueCounts[queueType] {
		return nil, errors.Wrapf(ErrorInvalidOrdinal, "queue %d of %d", queueIndex, dev.queueCounts[queueType])
	}

	key := queueKey{queueType, queueIndex}
	if queue, ok := dev.queues[key]; ok {
		return queue, nil
	}

	queue = &Queue{
		device:    dev,
		handle:    dev.ctx.driver.GetDeviceQueue(dev.handle, family.index, queueIndex),
		queueType: queueType,
		index:     queueIndex,
	}
	dev.queues[key] = queue
	return queue, nil
}
