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

func imageInfo() *core.ImageCreateInfo {
	return &core.ImageCreateInfo{
		ImageType: core.Image2D,
		Format:    core.Format{Channel: core.ChannelFormatB8G8R8A8, Numeric: core.NumericFormatSrgb},
		Extent:    core.Extent3D{Width: 64, Height: 32, Depth: 1},
		MipLevels: 3,
		ArraySize: 2,
		Samples:   4,
		Tiling:    core.LinearTiling,
		Usage:     core.ImageUsageShaderAccessWrite | core.ImageUsageDepthStencil,
	}
}

func TestCreateImage(t *testing.T) {
	f := newFixture(t)
	dev := f.device()

	img, err := core.CreateImage(dev, imageInfo())
	f.Assert(err, qt.IsNil)
	f.Assert(img.Type(), qt.Equals, core.ObjectTypeImage)
	f.Assert(img.Info(), qt.DeepEquals, *imageInfo())

	f.Assert(f.driver.ImageInfos(), qt.DeepEquals, []device.ImageCreateInfo{{
		ImageType:   device.ImageType2D,
		Format:      device.FormatB8G8R8A8Srgb,
		Extent:      device.Extent3D{Width: 64, Height: 32, Depth: 1},
		MipLevels:   3,
		ArrayLayers: 2,
		Samples:     4,
		Tiling:      device.ImageTilingLinear,
		Usage: device.ImageUsageTransferSrcBit | device.ImageUsageTransferDstBit |
			device.ImageUsageStorageBit | device.ImageUsageDepthStencilAttachmentBit,
	}})
}

func TestCreateImageInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*core.ImageCreateInfo)
		result core.Result
	}{{
		name:   "unknown format",
		modify: func(info *core.ImageCreateInfo) { info.Format.Numeric = core.NumericFormatSint },
		result: core.ErrorInvalidFormat,
	}, {
		name:   "undefined format",
		modify: func(info *core.ImageCreateInfo) { info.Format = core.Format{} },
		result: core.ErrorInvalidFormat,
	}, {
		name:   "image type",
		modify: func(info *core.ImageCreateInfo) { info.ImageType = 0 },
		result: core.ErrorInvalidValue,
	}, {
		name:   "zero width",
		modify: func(info *core.ImageCreateInfo) { info.Extent.Width = 0 },
		result: core.ErrorInvalidValue,
	}, {
		name:   "zero mip levels",
		modify: func(info *core.ImageCreateInfo) { info.MipLevels = 0 },
		result: core.ErrorInvalidValue,
	}, {
		name:   "zero array size",
		modify: func(info *core.ImageCreateInfo) { info.ArraySize = 0 },
		result: core.ErrorInvalidValue,
	}, {
		name:   "samples",
		modify: func(info *core.ImageCreateInfo) { info.Samples = 3 },
		result: core.ErrorInvalidValue,
	}, {
		name:   "tiling",
		modify: func(info *core.ImageCreateInfo) { info.Tiling = 0 },
		result: core.ErrorInvalidValue,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			info := imageInfo()
			test.modify(info)

			_, err := core.CreateImage(f.device(), info)
			f.Assert(err, qt.ErrorIs, test.result)
			f.Assert(f.driver.Calls("CreateImage"), qt.Equals, 0)
		})
	}
}

func TestCreateImageDriverFailure(t *testing.T) {
	f := newFixture(t)
	dev := f.device()
	f.driver.CreateImageResult = device.ErrorFormatNotSupported

	_, err := core.CreateImage(dev, imageInfo())
	f.Assert(err, qt.Equals, core.ErrorInvalidFormat)

	f.driver.CreateImageResult = device.ErrorOutOfHostMemory
	_, err = core.CreateImage(dev, imageInfo())
	f.Assert(err, qt.Equals, core.ErrorOutOfMemory)

	_, err = core.CreateImage(dev, nil)
	f.Assert(err, qt.Equals, core.ErrorInvalidPointer)
}

func TestCreateDescriptorSet(t *testing.T) {
	f := newFixture(t)
	dev := f.device()

	set, err := core.CreateDescriptorSet(dev, &core.DescriptorSetCreateInfo{Slots: 16})
	f.Assert(err, qt.IsNil)
	f.Assert(set.Type(), qt.Equals, core.ObjectTypeDescriptorSet)
	f.Assert(set.SlotCount(), qt.Equals, uint32(16))
	f.Assert(set.Device(), qt.Equals, dev)

	_, err = core.CreateDescriptorSet(dev, &core.DescriptorSetCreateInfo{})
	f.Assert(err, qt.ErrorIs, core.ErrorInvalidValue)
	_, err = core.CreateDescriptorSet(dev, nil)
	f.Assert(err, qt.Equals, core.ErrorInvalidPointer)
}

func TestNewPipeline(t *testing.T) {
	f := newFixture(t)
	dev := f.device()

	handle := f.driver.NewPipeline()
	pipeline, err := core.NewPipeline(dev, handle)
	f.Assert(err, qt.IsNil)
	f.Assert(pipeline.Type(), qt.Equals, core.ObjectTypePipeline)
	f.Assert(pipeline.Handle(), qt.Equals, handle)

	_, err = core.NewPipeline(dev, 0)
	f.Assert(err, qt.Equals, core.ErrorInvalidHandle)
	_, err = core.NewPipeline(nil, handle)
	f.Assert(err, qt.Equals, core.ErrorInvalidHandle)
}

func TestDestroyObject(t *testing.T) {
	f := newFixture(t)
	dev := f.device()

	objects := []core.Object{
		f.image(dev),
		f.pipeline(dev),
		f.descriptorSet(dev),
		f.commandBuffer(dev),
	}
	for _, obj := range objects {
		f.Assert(core.DestroyObject(obj), qt.IsNil, qt.Commentf("%s", obj.Type()))
		f.Assert(core.DestroyObject(obj), qt.Equals, core.ErrorInvalidHandle, qt.Commentf("%s", obj.Type()))
	}
	for _, kind := range []string{"image", "pipeline", "commandBuffer", "commandPool"} {
		f.Assert(f.driver.Live(kind), qt.Equals, 0, qt.Commentf("%s", kind))
	}

	mem := f.memory(dev)
	f.Assert(core.DestroyObject(mem), qt.ErrorIs, core.ErrorInvalidObjectType)
	f.Assert(f.driver.Live("memory"), qt.Equals, 1)

	f.Assert(core.DestroyObject(nil), qt.Equals, core.ErrorInvalidHandle)
}

func TestObjectsOfDestroyedDevice(t *testing.T) {
	f := newFixture(t)
	dev := f.device()
	img := f.image(dev)
	set := f.descriptorSet(dev)

	f.Assert(core.DestroyDevice(dev), qt.IsNil)
	f.Assert(core.DestroyObject(img), qt.Equals, core.ErrorInvalidHandle)
	f.Assert(core.BindObjectMemory(set, nil, 0), qt.Equals, core.ErrorInvalidHandle)

	_, err := core.CreateImage(dev, imageInfo())
	f.Assert(err, qt.Equals, core.ErrorInvalidHandle)
}
