// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/grvk/core"
	"github.com/devblok/grvk/device"
	"github.com/devblok/grvk/device/devicetest"
	"github.com/devblok/grvk/utility/trace"
)

var appInfo = core.ApplicationInfo{
	AppName:       "core_test",
	AppVersion:    1,
	EngineName:    "grvk",
	EngineVersion: 1,
	APIVersion:    0x00010000,
}

type fixture struct {
	*qt.C

	driver   *devicetest.Driver
	ctx      *core.Context
	hook     *test.Hook
	recorder *trace.Recorder
}

func newFixture(t *testing.T) *fixture {
	logger, hook := test.NewNullLogger()
	driver := devicetest.NewDriver()
	recorder := trace.NewRecorder(trace.Header{Author: "core_test"})
	return &fixture{
		C:        qt.New(t),
		driver:   driver,
		ctx:      core.NewContext(driver, core.WithLogger(logger), core.WithRecorder(recorder)),
		hook:     hook,
		recorder: recorder,
	}
}

func (f *fixture) gpu() *core.PhysicalGpu {
	gpus, err := f.ctx.InitAndEnumerateGpus(&appInfo, nil)
	f.Assert(err, qt.IsNil)
	f.Assert(gpus, qt.Not(qt.HasLen), 0)
	return gpus[0]
}

func (f *fixture) device(requests ...core.QueueRequest) *core.Device {
	if len(requests) == 0 {
		requests = []core.QueueRequest{{Type: core.QueueUniversal, Count: 1}}
	}
	dev, err := f.ctx.CreateDevice(f.gpu(), &core.DeviceCreateInfo{RequestedQueues: requests})
	f.Assert(err, qt.IsNil)
	return dev
}

func (f *fixture) image(dev *core.Device) *core.Image {
	img, err := core.CreateImage(dev, &core.ImageCreateInfo{
		ImageType: core.Image2D,
		Format:    core.Format{Channel: core.ChannelFormatR8G8B8A8, Numeric: core.NumericFormatUnorm},
		Extent:    core.Extent3D{Width: 256, Height: 256, Depth: 1},
		MipLevels: 1,
		ArraySize: 1,
		Samples:   1,
		Tiling:    core.OptimalTiling,
		Usage:     core.ImageUsageShaderAccessRead | core.ImageUsageColorTarget,
	})
	f.Assert(err, qt.IsNil)
	return img
}

func (f *fixture) descriptorSet(dev *core.Device) *core.DescriptorSet {
	set, err := core.CreateDescriptorSet(dev, &core.DescriptorSetCreateInfo{Slots: 4})
	f.Assert(err, qt.IsNil)
	return set
}

func (f *fixture) pipeline(dev *core.Device) *core.Pipeline {
	pipeline, err := core.NewPipeline(dev, f.driver.NewPipeline())
	f.Assert(err, qt.IsNil)
	return pipeline
}

func (f *fixture) memory(dev *core.Device) *core.GpuMemory {
	mem, err := core.AllocMemory(dev, &core.MemoryAllocInfo{
		Size:        1 << 20,
		Alignment:   4096,
		Heaps:       []uint32{0},
		MemPriority: core.MemoryPriorityNormal,
	})
	f.Assert(err, qt.IsNil)
	return mem
}

func (f *fixture) commandBuffer(dev *core.Device) *core.CommandBuffer {
	cb, err := core.CreateCommandBuffer(dev, &core.CmdBufferCreateInfo{QueueType: core.QueueUniversal})
	f.Assert(err, qt.IsNil)
	return cb
}

// trackingAllocator counts blocks handed out and returned through the
// allocation callbacks.
type trackingAllocator struct {
	allocs int
	frees  int
	fail   bool
}

func (a *trackingAllocator) callbacks() *core.AllocCallbacks {
	return &core.AllocCallbacks{
		Alloc: func(size, alignment uintptr, allocType core.AllocType) []byte {
			if a.fail {
				return nil
			}
			a.allocs++
			return core.DefaultAllocCallbacks.Alloc(size, alignment, allocType)
		},
		Free: func(mem []byte) {
			a.frees++
		},
	}
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(t)

	gpus, err := f.ctx.InitAndEnumerateGpus(&appInfo, nil)
	f.Assert(err, qt.IsNil)
	f.Assert(gpus, qt.Not(qt.HasLen), 0)

	queueProps, err := core.GpuQueueProperties(gpus[0])
	f.Assert(err, qt.IsNil)
	f.Assert(queueProps[0].QueueType, qt.Equals, core.QueueUniversal)

	dev, err := f.ctx.CreateDevice(gpus[0], &core.DeviceCreateInfo{
		RequestedQueues: []core.QueueRequest{{Type: core.QueueUniversal, Count: queueProps[0].QueueCount}},
	})
	f.Assert(err, qt.IsNil)
	f.Assert(dev.Handle(), qt.Not(qt.Equals), device.Device(0))

	queue, err := core.GetDeviceQueue(dev, core.QueueUniversal, 0)
	f.Assert(err, qt.IsNil)
	f.Assert(queue, qt.Not(qt.IsNil))
	f.Assert(queue.Handle(), qt.Not(qt.Equals), device.Queue(0))

	cb, err := core.CreateCommandBuffer(dev, &core.CmdBufferCreateInfo{QueueType: core.QueueUniversal})
	f.Assert(err, qt.IsNil)
	f.Assert(core.BeginCommandBuffer(cb, core.CmdBufferOptimizeOneTimeSubmit), qt.IsNil)
	f.Assert(core.EndCommandBuffer(cb), qt.IsNil)
	f.Assert(cb.State(), qt.Equals, core.CmdBufferRecorded)

	f.Assert(core.DestroyObject(cb), qt.IsNil)
	f.Assert(core.DestroyDevice(dev), qt.IsNil)
	f.ctx.Destroy()

	for _, kind := range []string{"instance", "device", "commandPool", "commandBuffer"} {
		f.Assert(f.driver.Live(kind), qt.Equals, 0, qt.Commentf("%s", kind))
	}

	var names []string
	for _, call := range f.recorder.Calls() {
		f.Assert(call.Result, qt.Equals, "GR_SUCCESS", qt.Commentf("%s", call.Name))
		names = append(names, call.Name)
	}
	f.Assert(names, qt.DeepEquals, []string{
		"grInitAndEnumerateGpus",
		"grGetGpuInfo",
		"grGetGpuInfo",
		"grCreateDevice",
		"grGetDeviceQueue",
		"grCreateCommandBuffer",
		"grBeginCommandBuffer",
		"grEndCommandBuffer",
		"grDestroyObject",
		"grDestroyDevice",
		"grDestroyInstance",
	})
}

func TestTraceRecordsRejectedCalls(t *testing.T) {
	f := newFixture(t)
	dev := f.device()
	img := f.image(dev)
	start := len(f.recorder.Calls())

	_, err := core.CreateCommandBuffer(dev, nil)
	f.Assert(err, qt.Equals, core.ErrorInvalidPointer)
	_, err = core.NewPipeline(dev, 0)
	f.Assert(err, qt.Equals, core.ErrorInvalidHandle)
	f.Assert(core.GetObjectInfo(img, core.InfoTypeMemoryRequirements, nil, nil), qt.Equals, core.ErrorInvalidPointer)
	f.Assert(core.DestroyObject(img), qt.IsNil)
	f.Assert(core.DestroyObject(img), qt.Equals, core.ErrorInvalidHandle)
	f.Assert(core.DestroyDevice(dev), qt.IsNil)
	_, err = core.GetDeviceQueue(dev, core.QueueUniversal, 0)
	f.Assert(err, qt.Equals, core.ErrorInvalidHandle)

	// Nil handles carry no context to record to
	_, err = core.CreateImage(nil, &core.ImageCreateInfo{})
	f.Assert(err, qt.Equals, core.ErrorInvalidHandle)

	type entry struct{ Name, Result string }
	var got []entry
	for _, call := range f.recorder.Calls()[start:] {
		got = append(got, entry{call.Name, call.Result})
	}
	f.Assert(got, qt.DeepEquals, []entry{
		{"grCreateCommandBuffer", "GR_ERROR_INVALID_POINTER"},
		{"grCreatePipeline", "GR_ERROR_INVALID_HANDLE"},
		{"grGetObjectInfo", "GR_ERROR_INVALID_POINTER"},
		{"grDestroyObject", "GR_SUCCESS"},
		{"grDestroyObject", "GR_ERROR_INVALID_HANDLE"},
		{"grDestroyDevice", "GR_SUCCESS"},
		{"grGetDeviceQueue", "GR_ERROR_INVALID_HANDLE"},
	})
}
