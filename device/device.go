// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device describes the rendering device API that the translation
// core talks to. Driver mirrors the parts of the Vulkan contract the core
// needs, with opaque handles so that the core and its tests do not depend
// on cgo.
package device

import "fmt"

// Opaque handles handed out by a Driver. Zero is the null handle.
type (
	Instance       uint64
	PhysicalDevice uint64
	Device         uint64
	Queue          uint64
	CommandPool    uint64
	CommandBuffer  uint64
	Image          uint64
	DeviceMemory   uint64
	Pipeline       uint64
)

// Result is a status code of the target API. Values match VkResult.
type Result int32

// Target API status codes
const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	EventSet                  Result = 3
	EventReset                Result = 4
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorFormatNotSupported   Result = -11
)

var resultNames = map[Result]string{
	Success:                   "VK_SUCCESS",
	NotReady:                  "VK_NOT_READY",
	Timeout:                   "VK_TIMEOUT",
	EventSet:                  "VK_EVENT_SET",
	EventReset:                "VK_EVENT_RESET",
	Incomplete:                "VK_INCOMPLETE",
	ErrorOutOfHostMemory:      "VK_ERROR_OUT_OF_HOST_MEMORY",
	ErrorOutOfDeviceMemory:    "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	ErrorInitializationFailed: "VK_ERROR_INITIALIZATION_FAILED",
	ErrorDeviceLost:           "VK_ERROR_DEVICE_LOST",
	ErrorMemoryMapFailed:      "VK_ERROR_MEMORY_MAP_FAILED",
	ErrorLayerNotPresent:      "VK_ERROR_LAYER_NOT_PRESENT",
	ErrorExtensionNotPresent:  "VK_ERROR_EXTENSION_NOT_PRESENT",
	ErrorFeatureNotPresent:    "VK_ERROR_FEATURE_NOT_PRESENT",
	ErrorIncompatibleDriver:   "VK_ERROR_INCOMPATIBLE_DRIVER",
	ErrorTooManyObjects:       "VK_ERROR_TOO_MANY_OBJECTS",
	ErrorFormatNotSupported:   "VK_ERROR_FORMAT_NOT_SUPPORTED",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("VK_RESULT(%d)", int32(r))
}

// QueueFlags describe the capabilities of a queue family.
type QueueFlags uint32

// Queue family capability bits
const (
	QueueGraphicsBit      QueueFlags = 0x1
	QueueComputeBit       QueueFlags = 0x2
	QueueTransferBit      QueueFlags = 0x4
	QueueSparseBindingBit QueueFlags = 0x8
)

// QueueFamilyProperties describes one queue family of a physical device.
type QueueFamilyProperties struct {
	QueueFlags QueueFlags
	QueueCount uint32
}

// PhysicalDeviceType is the kind of a physical device.
type PhysicalDeviceType uint32

// Physical device kinds
const (
	PhysicalDeviceTypeOther PhysicalDeviceType = iota
	PhysicalDeviceTypeIntegratedGpu
	PhysicalDeviceTypeDiscreteGpu
	PhysicalDeviceTypeVirtualGpu
	PhysicalDeviceTypeCpu
)

// PhysicalDeviceProperties describes available physical properties of a rendering device
type PhysicalDeviceProperties struct {
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32
	DeviceType    PhysicalDeviceType
	DeviceName    string
}

// InstanceCreateInfo carries the application metadata for instance creation.
type InstanceCreateInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         uint32
}

// DeviceQueueCreateInfo requests QueueCount queues from one family.
// Priorities must hold QueueCount entries.
type DeviceQueueCreateInfo struct {
	QueueFamilyIndex uint32
	QueueCount       uint32
	Priorities       []float32
}

// DeviceCreateInfo describes a logical device.
type DeviceCreateInfo struct {
	QueueCreateInfos []DeviceQueueCreateInfo
}

// CommandPoolCreateFlags control command pool behaviour.
type CommandPoolCreateFlags uint32

// Command pool flags
const (
	CommandPoolCreateTransientBit          CommandPoolCreateFlags = 0x1
	CommandPoolCreateResetCommandBufferBit CommandPoolCreateFlags = 0x2
)

// CommandPoolCreateInfo describes a command pool.
type CommandPoolCreateInfo struct {
	Flags            CommandPoolCreateFlags
	QueueFamilyIndex uint32
}

// CommandBufferLevel is primary or secondary.
type CommandBufferLevel uint32

// Command buffer levels
const (
	CommandBufferLevelPrimary CommandBufferLevel = iota
	CommandBufferLevelSecondary
)

// CommandBufferAllocateInfo describes a command buffer allocation.
type CommandBufferAllocateInfo struct {
	CommandPool        CommandPool
	Level              CommandBufferLevel
	CommandBufferCount uint32
}

// CommandBufferUsageFlags are usage hints for recording.
type CommandBufferUsageFlags uint32

// Command buffer usage bits
const (
	CommandBufferUsageOneTimeSubmitBit      CommandBufferUsageFlags = 0x1
	CommandBufferUsageRenderPassContinueBit CommandBufferUsageFlags = 0x2
	CommandBufferUsageSimultaneousUseBit    CommandBufferUsageFlags = 0x4
)

// CommandBufferBeginInfo describes how recording starts.
// Inheritance info is not supported.
type CommandBufferBeginInfo struct {
	Flags CommandBufferUsageFlags
}

// MemoryRequirements as reported by the target API.
type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// MemoryAllocateInfo describes a device memory allocation.
type MemoryAllocateInfo struct {
	AllocationSize  uint64
	MemoryTypeIndex uint32
}

// ImageType is the dimensionality of an image.
type ImageType uint32

// Image dimensionalities
const (
	ImageType1D ImageType = iota
	ImageType2D
	ImageType3D
)

// Format is a target API pixel format. Values match VkFormat.
type Format uint32

// Supported formats
const (
	FormatUndefined          Format = 0
	FormatR8Unorm            Format = 9
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR16G16B16A16Sfloat Format = 97
	FormatR32Sfloat          Format = 100
	FormatR32G32B32A32Sfloat Format = 109
	FormatD32Sfloat          Format = 126
	FormatD24UnormS8Uint     Format = 129
)

// ImageTiling is the memory layout of image texels.
type ImageTiling uint32

// Tilings
const (
	ImageTilingOptimal ImageTiling = iota
	ImageTilingLinear
)

// ImageUsageFlags describe how an image will be used.
type ImageUsageFlags uint32

// Image usage bits
const (
	ImageUsageTransferSrcBit            ImageUsageFlags = 0x1
	ImageUsageTransferDstBit            ImageUsageFlags = 0x2
	ImageUsageSampledBit                ImageUsageFlags = 0x4
	ImageUsageStorageBit                ImageUsageFlags = 0x8
	ImageUsageColorAttachmentBit        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachmentBit ImageUsageFlags = 0x20
)

// Extent3D is the size of an image.
type Extent3D struct {
	Width, Height, Depth uint32
}

// ImageCreateInfo describes an image.
type ImageCreateInfo struct {
	ImageType   ImageType
	Format      Format
	Extent      Extent3D
	MipLevels   uint32
	ArrayLayers uint32
	Samples     uint32
	Tiling      ImageTiling
	Usage       ImageUsageFlags
}

// Driver describes a non-concrete target API driver.
// Enumerations follow the size-then-fill protocol: a nil output slice
// makes the call store the available count, otherwise at most *count
// entries are written and *count is updated to the number written.
type Driver interface {
	CreateInstance(info InstanceCreateInfo) (Instance, Result)
	DestroyInstance(instance Instance)
	EnumeratePhysicalDevices(instance Instance, count *uint32, devices []PhysicalDevice) Result
	GetPhysicalDeviceProperties(physicalDevice PhysicalDevice) PhysicalDeviceProperties
	GetPhysicalDeviceQueueFamilyProperties(physicalDevice PhysicalDevice, count *uint32, properties []QueueFamilyProperties)

	CreateDevice(physicalDevice PhysicalDevice, info DeviceCreateInfo) (Device, Result)
	DestroyDevice(device Device)
	GetDeviceQueue(device Device, queueFamilyIndex, queueIndex uint32) Queue

	CreateCommandPool(device Device, info CommandPoolCreateInfo) (CommandPool, Result)
	DestroyCommandPool(device Device, pool CommandPool)
	AllocateCommandBuffers(device Device, info CommandBufferAllocateInfo, buffers []CommandBuffer) Result
	FreeCommandBuffers(device Device, pool CommandPool, buffers []CommandBuffer)
	BeginCommandBuffer(buffer CommandBuffer, info CommandBufferBeginInfo) Result
	EndCommandBuffer(buffer CommandBuffer) Result

	CreateImage(device Device, info ImageCreateInfo) (Image, Result)
	DestroyImage(device Device, image Image)
	GetImageMemoryRequirements(device Device, image Image) MemoryRequirements
	BindImageMemory(device Device, image Image, memory DeviceMemory, offset uint64) Result

	AllocateMemory(device Device, info MemoryAllocateInfo) (DeviceMemory, Result)
	FreeMemory(device Device, memory DeviceMemory)

	DestroyPipeline(device Device, pipeline Pipeline)
}
