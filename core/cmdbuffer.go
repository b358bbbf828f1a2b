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

// CmdBufferState is the recording state of a CommandBuffer.
type CmdBufferState int

// Command buffer states
const (
	CmdBufferAllocated CmdBufferState = iota
	CmdBufferRecording
	CmdBufferRecorded
)

func (s CmdBufferState) String() string {
	switch s {
	case CmdBufferAllocated:
		return "allocated"
	case CmdBufferRecording:
		return "recording"
	case CmdBufferRecorded:
		return "recorded"
	}
	return "unknown"
}

// CmdBufferCreateInfo describes a command buffer.
type CmdBufferCreateInfo struct {
	QueueType QueueType
	Flags     uint32
}

// CommandBuffer is a primary command buffer with a pool of its own.
// Recording must happen from one goroutine at a time.
type CommandBuffer struct {
	header

	queueType QueueType
	pool      device.CommandPool
	handle    device.CommandBuffer
	state     CmdBufferState
}

// Type implements interface
func (*CommandBuffer) Type() ObjectType {
	return ObjectTypeCommandBuffer
}

// QueueType returns the queue type the buffer records for.
func (c *CommandBuffer) QueueType() QueueType {
	return c.queueType
}

// State returns the recording state.
func (c *CommandBuffer) State() CmdBufferState {
	return c.state
}

// Handle returns the target command buffer.
func (c *CommandBuffer) Handle() device.CommandBuffer {
	return c.handle
}

func (c *CommandBuffer) destroy() {
	dev := c.Device()
	dev.ctx.driver.FreeCommandBuffers(dev.handle, c.pool, []device.CommandBuffer{c.handle})
	dev.ctx.driver.DestroyCommandPool(dev.handle, c.pool)
	c.released = true
}

// CreateCommandBuffer allocates a command buffer for queues of
// info.QueueType, together with the pool it is allocated from.
func CreateCommandBuffer(dev *Device, info *CmdBufferCreateInfo) (cmdBuffer *CommandBuffer, err error) {
	defer func() {
		contextOf(dev).record("grCreateCommandBuffer", err, "%+v", info)
	}()

	if !dev.valid() {
		return nil, ErrorInvalidHandle
	}
	if info == nil {
		return nil, ErrorInvalidPointer
	}

	logger := dev.ctx.log.WithField("queueType", info.QueueType)
	logger.Trace("grCreateCommandBuffer")

	family, ok := dev.families.lookup(info.QueueType)
	if !ok || !family.found {
		logger.Warn("unsupported queue type")
		return nil, ErrorInvalidQueueType
	}

	drv := dev.ctx.driver
	pool, res := drv.CreateCommandPool(dev.handle, device.CommandPoolCreateInfo{
		Flags:            device.CommandPoolCreateResetCommandBufferBit,
		QueueFamilyIndex: family.index,
	})
	if res != device.Success {
		logger.WithField("result", res).Warn("command pool creation failed")
		return nil, errors.Wrap(ErrorOutOfMemory, "command pool")
	}

	buffers := make([]device.CommandBuffer, 1)
	res = drv.AllocateCommandBuffers(dev.handle, device.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              device.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers)
	if res != device.Success {
		logger.WithField("result", res).Warn("command buffer allocation failed")
		drv.DestroyCommandPool(dev.handle, pool)
		return nil, errors.Wrap(ErrorOutOfMemory, "command buffer")
	}

	return &CommandBuffer{
		header:    newHeader(dev),
		queueType: info.QueueType,
		pool:      pool,
		handle:    buffers[0],
		state:     CmdBufferAllocated,
	}, nil
}

// BeginCommandBuffer starts recording. A recorded buffer may be begun
// again, which resets it.
func BeginCommandBuffer(cmdBuffer *CommandBuffer, flags CmdBufferBuildFlags) (err error) {
	defer func() {
		contextOf(cmdBuffer).record("grBeginCommandBuffer", err, "0x%X", uint32(flags))
	}()

	if cmdBuffer == nil || !cmdBuffer.valid() {
		return ErrorInvalidHandle
	}
	ctx := cmdBuffer.Device().ctx

	logger := ctx.log.WithFields(log.Fields{
		"flags": flags,
		"state": cmdBuffer.state,
	})
	logger.Trace("grBeginCommandBuffer")

	if cmdBuffer.state == CmdBufferRecording {
		return errors.Wrap(ErrorIncompleteCommandBuffer, "already recording")
	}

	var usage device.CommandBufferUsageFlags
	if flags&CmdBufferOptimizeOneTimeSubmit != 0 {
		usage |= device.CommandBufferUsageOneTimeSubmitBit
	}
	res := ctx.driver.BeginCommandBuffer(cmdBuffer.handle, device.CommandBufferBeginInfo{
		Flags: usage,
	})
	if res != device.Success {
		logger.WithField("result", res).Warn("begin failed")
		return errors.Wrap(ErrorOutOfMemory, "begin command buffer")
	}
	cmdBuffer.state = CmdBufferRecording
	return nil
}

// EndCommandBuffer finishes recording.
func EndCommandBuffer(cmdBuffer *CommandBuffer) (err error) {
	defer func() {
		contextOf(cmdBuffer).record("grEndCommandBuffer", err, "")
	}()

	if cmdBuffer == nil || !cmdBuffer.valid() {
		return ErrorInvalidHandle
	}
	ctx := cmdBuffer.Device().ctx

	logger := ctx.log.WithField("state", cmdBuffer.state)
	logger.Trace("grEndCommandBuffer")

	if cmdBuffer.state != CmdBufferRecording {
		return errors.Wrap(ErrorIncompleteCommandBuffer, "not recording")
	}
	if res := ctx.driver.EndCommandBuffer(cmdBuffer.handle); res != device.Success {
		logger.WithField("result", res).Warn("end failed")
		cmdBuffer.state = CmdBufferAllocated
		return errors.Wrap(ErrorOutOfMemory, "end command buffer")
	}
	cmdBuffer.state = CmdBufferRecorded
	return nil
}
