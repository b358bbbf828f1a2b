// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core translates the legacy Mantle style GPU API onto a
// device.Driver (Vulkan). It maps legacy handles onto target objects while
// keeping the legacy queue, memory requirement and binding semantics.
//
// Calls are synchronous and the package does no locking of its own.
// Callers must serialize InitAndEnumerateGpus and Destroy on a Context,
// record into a CommandBuffer from one goroutine at a time and
// synchronize use of a Queue externally.
package core

// MaxPhysicalGpus caps the number of GPUs InitAndEnumerateGpus reports.
const MaxPhysicalGpus = 4

// MaxMemoryHeaps caps the number of heaps in MemoryRequirements.
const MaxMemoryHeaps = 8

// targetAPIVersion is the Vulkan version requested from the driver, 1.1.0.
const targetAPIVersion = 1<<22 | 1<<12

// QueueType identifies a legacy queue type.
type QueueType uint32

// Legacy queue types
const (
	QueueUniversal QueueType = 0x1000
	QueueCompute   QueueType = 0x1001
)

func (t QueueType) String() string {
	switch t {
	case QueueUniversal:
		return "universal"
	case QueueCompute:
		return "compute"
	}
	return "unknown"
}

// InfoType selects what GetObjectInfo and GetGpuInfo report.
type InfoType uint32

// Info types
const (
	InfoTypePhysicalGpuProperties      InfoType = 0x6100
	InfoTypePhysicalGpuQueueProperties InfoType = 0x6102
	InfoTypeMemoryRequirements         InfoType = 0x6800
)

// CmdBufferBuildFlags are optimization hints for BeginCommandBuffer.
type CmdBufferBuildFlags uint32

// Command buffer build flags
const (
	CmdBufferOptimizeGpuSmallBatch       CmdBufferBuildFlags = 0x1
	CmdBufferOptimizePipelineSwitch      CmdBufferBuildFlags = 0x2
	CmdBufferOptimizeOneTimeSubmit       CmdBufferBuildFlags = 0x4
	CmdBufferOptimizeDescriptorSetSwitch CmdBufferBuildFlags = 0x8
)

// ApplicationInfo describes the application at instance creation.
type ApplicationInfo struct {
	AppName       string
	AppVersion    uint32
	EngineName    string
	EngineVersion uint32
	APIVersion    uint32
}
