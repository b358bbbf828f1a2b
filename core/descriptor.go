// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
)

// DescriptorSetCreateInfo describes a descriptor set.
type DescriptorSetCreateInfo struct {
	Slots uint32
}

// DescriptorSet is a set of descriptor slots kept on the host. It has no
// target object and needs no memory.
type DescriptorSet struct {
	header

	slots uint32
}

// Type implements interface
func (*DescriptorSet) Type() ObjectType {
	return ObjectTypeDescriptorSet
}

// SlotCount returns the number of slots in the set.
func (d *DescriptorSet) SlotCount() uint32 {
	return d.slots
}

// CreateDescriptorSet creates a descriptor set with info.Slots slots.
func CreateDescriptorSet(dev *Device, info *DescriptorSetCreateInfo) (set *DescriptorSet, err error) {
	defer func() {
		contextOf(dev).record("grCreateDescriptorSet", err, "%+v", info)
	}()

	if !dev.valid() {
		return nil, ErrorInvalidHandle
	}
	if info == nil {
		return nil, ErrorInvalidPointer
	}
	dev.ctx.log.WithField("slots", info.Slots).Trace("grCreateDescriptorSet")

	if info.Slots == 0 {
		return nil, errors.Wrap(ErrorInvalidValue, "descriptor set without slots")
	}
	return &DescriptorSet{
		header: newHeader(dev),
		slots:  info.Slots,
	}, nil
}
