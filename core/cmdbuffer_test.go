// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/grvk/core"
	"github.com/devblok/grvk/device"
)

func TestCreateCommandBuffer(t *testing.T) {
	f := newFixture(t)
	dev := f.device(
		core.QueueRequest{Type: core.QueueUniversal, Count: 1},
		core.QueueRequest{Type: core.QueueCompute, Count: 2},
	)

	universal := f.commandBuffer(dev)
	f.Assert(universal.Type(), qt.Equals, core.ObjectTypeCommandBuffer)
	f.Assert(universal.State(), qt.Equals, core.CmdBufferAllocated)
	f.Assert(universal.QueueType(), qt.Equals, core.QueueUniversal)

	compute, err := core.CreateCommandBuffer(dev, &core.CmdBufferCreateInfo{QueueType: core.QueueCompute})
	f.Assert(err, qt.IsNil)
	f.Assert(compute.Handle(), qt.Not(qt.Equals), universal.Handle())

	// One pool per command buffer
	f.Assert(f.driver.CommandPoolInfos(), qt.DeepEquals, []device.CommandPoolCreateInfo{
		{Flags: device.CommandPoolCreateResetCommandBufferBit, QueueFamilyIndex: 0},
		{Flags: device.CommandPoolCreateResetCommandBufferBit, QueueFamilyIndex: 1},
	})
	f.Assert(f.driver.Live("commandPool"), qt.Equals, 2)
	f.Assert(f.driver.Live("commandBuffer"), qt.Equals, 2)
}

func TestCreateCommandBufferQueueType(t *testing.T) {
	f := newFixture(t)
	f.driver.QueueFamilies = []device.QueueFamilyProperties{
		{QueueFlags: device.QueueGraphicsBit | device.QueueComputeBit, QueueCount: 1},
	}
	dev := f.device()

	_, err := core.CreateCommandBuffer(dev, &core.CmdBufferCreateInfo{QueueType: core.QueueCompute})
	f.Assert(err, qt.Equals, core.ErrorInvalidQueueType)

	_, err = core.CreateCommandBuffer(dev, &core.CmdBufferCreateInfo{QueueType: core.QueueType(7)})
	f.Assert(err, qt.Equals, core.ErrorInvalidQueueType)

	f.Assert(f.driver.Calls("CreateCommandPool"), qt.Equals, 0)

	_, err = core.CreateCommandBuffer(dev, nil)
	f.Assert(err, qt.Equals, core.ErrorInvalidPointer)
	_, err = core.CreateCommandBuffer(nil, &core.CmdBufferCreateInfo{QueueType: core.QueueUniversal})
	f.Assert(err, qt.Equals, core.ErrorInvalidHandle)
}

func TestCreateCommandBufferFailures(t *testing.T) {
	f := newFixture(t)
	dev := f.device()

	f.driver.CreateCommandPoolResult = device.ErrorOutOfDeviceMemory
	_, err := core.CreateCommandBuffer(dev, &core.CmdBufferCreateInfo{QueueType: core.QueueUniversal})
	f.Assert(err, qt.ErrorIs, core.ErrorOutOfMemory)
	f.Assert(f.driver.Calls("AllocateCommandBuffers"), qt.Equals, 0)

	f.driver.CreateCommandPoolResult = device.Success
	f.driver.AllocateCommandBuffersResult = device.ErrorOutOfHostMemory
	_, err = core.CreateCommandBuffer(dev, &core.CmdBufferCreateInfo{QueueType: core.QueueUniversal})
	f.Assert(err, qt.ErrorIs, core.ErrorOutOfMemory)
	f.Assert(f.driver.Calls("DestroyCommandPool"), qt.Equals, 1)
	f.Assert(f.driver.Live("commandPool"), qt.Equals, 0)
}

func TestCommandBufferRecording(t *testing.T) {
	f := newFixture(t)
	cb := f.commandBuffer(f.device())

	f.Assert(core.EndCommandBuffer(cb), qt.ErrorIs, core.ErrorIncompleteCommandBuffer)

	f.Assert(core.BeginCommandBuffer(cb, core.CmdBufferOptimizeOneTimeSubmit|core.CmdBufferOptimizeGpuSmallBatch), qt.IsNil)
	f.Assert(cb.State(), qt.Equals, core.CmdBufferRecording)
	f.Assert(core.BeginCommandBuffer(cb, 0), qt.ErrorIs, core.ErrorIncompleteCommandBuffer)

	f.Assert(core.EndCommandBuffer(cb), qt.IsNil)
	f.Assert(cb.State(), qt.Equals, core.CmdBufferRecorded)
	f.Assert(core.EndCommandBuffer(cb), qt.ErrorIs, core.ErrorIncompleteCommandBuffer)

	// Recorded buffers can be recorded again
	f.Assert(core.BeginCommandBuffer(cb, core.CmdBufferOptimizePipelineSwitch), qt.IsNil)
	f.Assert(core.EndCommandBuffer(cb), qt.IsNil)

	f.Assert(f.driver.BeginInfos(), qt.DeepEquals, []device.CommandBufferBeginInfo{
		{Flags: device.CommandBufferUsageOneTimeSubmitBit},
		{Flags: 0},
	})
	f.Assert(f.driver.Calls("EndCommandBuffer"), qt.Equals, 2)
}

func TestCommandBufferRecordingFailures(t *testing.T) {
	f := newFixture(t)
	cb := f.commandBuffer(f.device())

	f.driver.BeginCommandBufferResult = device.ErrorOutOfDeviceMemory
	f.Assert(core.BeginCommandBuffer(cb, 0), qt.ErrorIs, core.ErrorOutOfMemory)
	f.Assert(cb.State(), qt.Equals, core.CmdBufferAllocated)

	f.driver.BeginCommandBufferResult = device.Success
	f.driver.EndCommandBufferResult = device.ErrorDeviceLost
	f.Assert(core.BeginCommandBuffer(cb, 0), qt.IsNil)
	f.Assert(core.EndCommandBuffer(cb), qt.ErrorIs, core.ErrorOutOfMemory)
	f.Assert(cb.State(), qt.Equals, core.CmdBufferAllocated)
	f.Assert(f.hook.LastEntry().Message, qt.Equals, "end failed")
}

func TestCommandBufferDestroyed(t *testing.T) {
	f := newFixture(t)
	cb := f.commandBuffer(f.device())

	f.Assert(core.DestroyObject(cb), qt.IsNil)
	f.Assert(core.BeginCommandBuffer(cb, 0), qt.Equals, core.ErrorInvalidHandle)
	f.Assert(core.EndCommandBuffer(cb), qt.Equals, core.ErrorInvalidHandle)
	f.Assert(core.BeginCommandBuffer(nil, 0), qt.Equals, core.ErrorInvalidHandle)
}
