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

// ImageType is the dimensionality of a legacy image.
type ImageType uint32

// Image types
const (
	Image1D ImageType = 0x1C00 + iota
	Image2D
	Image3D
)

// ImageTiling is the texel layout of a legacy image.
type ImageTiling uint32

// Image tilings
const (
	LinearTiling ImageTiling = 0x1D00 + iota
	OptimalTiling
)

// ImageUsageFlags describe how a legacy image is used.
type ImageUsageFlags uint32

// Image usage flags
const (
	ImageUsageShaderAccessRead  ImageUsageFlags = 0x1
	ImageUsageShaderAccessWrite ImageUsageFlags = 0x2
	ImageUsageColorTarget       ImageUsageFlags = 0x4
	ImageUsageDepthStencil      ImageUsageFlags = 0x8
)

// ChannelFormat is the channel layout half of a legacy format.
type ChannelFormat uint32

// Channel formats
const (
	ChannelFormatUndefined ChannelFormat = iota
	ChannelFormatR8
	ChannelFormatR8G8B8A8
	ChannelFormatB8G8R8A8
	ChannelFormatR16G16B16A16
	ChannelFormatR32
	ChannelFormatR32G32B32A32
	ChannelFormatR32G8
)

// NumericFormat is the interpretation half of a legacy format.
type NumericFormat uint32

// Numeric formats
const (
	NumericFormatUndefined NumericFormat = iota
	NumericFormatUnorm
	NumericFormatSnorm
	NumericFormatUint
	NumericFormatSint
	NumericFormatFloat
	NumericFormatSrgb
	NumericFormatDepthStencil
)

// Format is a legacy pixel format.
type Format struct {
	Channel ChannelFormat
	Numeric NumericFormat
}

var formats = map[Format]device.Format{
	{ChannelFormatR8, NumericFormatUnorm}:           device.FormatR8Unorm,
	{ChannelFormatR8G8B8A8, NumericFormatUnorm}:     device.FormatR8G8B8A8Unorm,
	{ChannelFormatR8G8B8A8, NumericFormatSrgb}:      device.FormatR8G8B8A8Srgb,
	{ChannelFormatB8G8R8A8, NumericFormatUnorm}:     device.FormatB8G8R8A8Unorm,
	{ChannelFormatB8G8R8A8, NumericFormatSrgb}:      device.FormatB8G8R8A8Srgb,
	{ChannelFormatR16G16B16A16, NumericFormatFloat}: device.FormatR16G16B16A16Sfloat,
	{ChannelFormatR32, NumericFormatFloat}:          device.FormatR32Sfloat,
	{ChannelFormatR32, NumericFormatDepthStencil}:   device.FormatD32Sfloat,
	{ChannelFormatR32G32B32A32, NumericFormatFloat}: device.FormatR32G32B32A32Sfloat,
	{ChannelFormatR32G8, NumericFormatDepthStencil}: device.FormatD24UnormS8Uint,
}

// Extent3D is the size of an image in texels.
type Extent3D struct {
	Width, Height, Depth uint32
}

// ImageCreateInfo describes a legacy image.
type ImageCreateInfo struct {
	ImageType ImageType
	Format    Format
	Extent    Extent3D
	MipLevels uint32
	ArraySize uint32
	Samples   uint32
	Tiling    ImageTiling
	Usage     ImageUsageFlags
}

// Image is a legacy image backed by a target image. It needs memory bound
// with BindObjectMemory before use.
type Image struct {
	header

	handle device.Image
	info   ImageCreateInfo

	memory *GpuMemory
	offset uint64
}

// Type implements interface
func (*Image) Type() ObjectType {
	return ObjectTypeImage
}

// Info returns the description the image was created with.
func (i *Image) Info() ImageCreateInfo {
	return i.info
}

// Memory returns the bound memory and offset, nil if none was bound.
func (i *Image) Memory() (*GpuMemory, uint64) {
	return i.memory, i.offset
}

func imageTypeToDevice(t ImageType) (device.ImageType, bool) {
	switch t {
	case Image1D:
		return device.ImageType1D, true
	case Image2D:
		return device.ImageType2D, true
	case Image3D:
		return device.ImageType3D, true
	}
	return 0, false
}

func imageUsageToDevice(usage ImageUsageFlags) device.ImageUsageFlags {
	flags := device.ImageUsageTransferSrcBit | device.ImageUsageTransferDstBit
	if usage&ImageUsageShaderAccessRead != 0 {
		flags |= device.ImageUsageSampledBit
	}
	if usage&ImageUsageShaderAccessWrite != 0 {
		flags |= device.ImageUsageStorageBit
	}
	if usage&ImageUsageColorTarget != 0 {
		flags |= device.ImageUsageColorAttachmentBit
	}
	if usage&ImageUsageDepthStencil != 0 {
		flags |= device.ImageUsageDepthStencilAttachmentBit
	}
	return flags
}

// CreateImage creates an image without memory.
func CreateImage(dev *Device, info *ImageCreateInfo) (image *Image, err error) {
	defer func() {
		contextOf(dev).record("grCreateImage", err, "%+v", info)
	}()

	if !dev.valid() {
		return nil, ErrorInvalidHandle
	}
	if info == nil {
		return nil, ErrorInvalidPointer
	}

	logger := dev.ctx.log.WithFields(log.Fields{
		"format": info.Format,
		"extent": info.Extent,
	})
	logger.Trace("grCreateImage")

	imageType, ok := imageTypeToDevice(info.ImageType)
	if !ok {
		return nil, errors.Wrapf(ErrorInvalidValue, "image type 0x%X", uint32(info.ImageType))
	}
	format, ok := formats[info.Format]
	if !ok {
		logger.Warn("unsupported format")
		return nil, ErrorInvalidFormat
	}
	if info.Extent.Width == 0 || info.Extent.Height == 0 || info.Extent.Depth == 0 ||
		info.MipLevels == 0 || info.ArraySize == 0 {
		return nil, errors.Wrap(ErrorInvalidValue, "empty image")
	}
	if info.Samples == 0 || info.Samples > 64 || info.Samples&(info.Samples-1) != 0 {
		return nil, errors.Wrapf(ErrorInvalidValue, "%d samples", info.Samples)
	}

	tiling := device.ImageTilingOptimal
	switch info.Tiling {
	case LinearTiling:
		tiling = device.ImageTilingLinear
	case OptimalTiling:
	default:
		return nil, errors.Wrapf(ErrorInvalidValue, "tiling 0x%X", uint32(info.Tiling))
	}

	handle, res := dev.ctx.driver.CreateImage(dev.handle, device.ImageCreateInfo{
		ImageType: imageType,
		Format:    format,
		Extent: device.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  info.Extent.Depth,
		},
		MipLevels:   info.MipLevels,
		ArrayLayers: info.ArraySize,
		Samples:     info.Samples,
		Tiling:      tiling,
		Usage:       imageUsageToDevice(info.Usage),
	})
	if res != device.Success {
		logger.WithField("result", res).Warn("image creation failed")
		return nil, errorFromDevice(res)
	}

	return &Image{
		header: newHeader(dev),
		handle: handle,
		info:   *info,
	}, nil
}
