// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "github.com/devblok/grvk/device"

// Pipeline wraps a target pipeline. Pipelines are built by the caller on
// the target API and adopted with NewPipeline.
type Pipeline struct {
	header

	handle device.Pipeline
}

// Type implements interface
func (*Pipeline) Type() ObjectType {
	return ObjectTypePipeline
}

// Handle returns the target pipeline.
func (p *Pipeline) Handle() device.Pipeline {
	return p.handle
}

// NewPipeline adopts handle as a pipeline of dev. The pipeline is destroyed
// with DestroyObject.
func NewPipeline(dev *Device, handle device.Pipeline) (pipeline *Pipeline, err error) {
	defer func() {
		contextOf(dev).record("grCreatePipeline", err, "0x%X", uint64(handle))
	}()

	if !dev.valid() || handle == 0 {
		return nil, ErrorInvalidHandle
	}
	dev.ctx.log.Trace("pipeline adopted")
	return &Pipeline{
		header: newHeader(dev),
		handle: handle,
	}, nil
}
