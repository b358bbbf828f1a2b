// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

const validationLayer = "VK_LAYER_KHRONOS_validation\x00"

// VulkanConfiguration is used to configure the Vulkan driver
type VulkanConfiguration struct {
	// DebugMode loads the validation layer into every instance
	DebugMode bool
	Layers    []string
}

// NewVulkanDriver loads the Vulkan loader and returns a Driver backed by it.
func NewVulkanDriver(cfg VulkanConfiguration) (*Vulkan, error) {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	layers := safeStrings(cfg.Layers)
	if cfg.DebugMode {
		layers = append(layers, validationLayer)
	}

	return &Vulkan{
		layers: layers,
	}, nil
}

// Vulkan is a Driver on top of the system Vulkan loader.
type Vulkan struct {
	Driver

	layers []string

	instances       handleTable[vk.Instance]
	physicalDevices handleTable[vk.PhysicalDevice]
	devices         handleTable[vk.Device]
	queues          handleTable[vk.Queue]
	commandPools    handleTable[vk.CommandPool]
	commandBuffers  handleTable[vk.CommandBuffer]
	images          handleTable[vk.Image]
	memories        handleTable[vk.DeviceMemory]
	pipelines       handleTable[vk.Pipeline]
}

// CreateInstance implements interface
func (v *Vulkan) CreateInstance(info InstanceCreateInfo) (Instance, Result) {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(info.ApplicationName),
		ApplicationVersion: info.ApplicationVersion,
		PEngineName:        safeString(info.EngineName),
		EngineVersion:      info.EngineVersion,
		ApiVersion:         info.APIVersion,
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:               vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:    &appInfo,
		EnabledLayerCount:   uint32(len(v.layers)),
		PpEnabledLayerNames: v.layers,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&instanceInfo, nil, &instance); res != vk.Success {
		return 0, Result(res)
	}
	if err := vk.InitInstance(instance); err != nil {
		log.WithError(err).Warn("vk.InitInstance() failed")
		vk.DestroyInstance(instance, nil)
		return 0, ErrorInitializationFailed
	}
	return Instance(v.instances.add(instance)), Success
}

// DestroyInstance implements interface
func (v *Vulkan) DestroyInstance(instance Instance) {
	if vkInstance, ok := v.instances.remove(uint64(instance)); ok {
		v.physicalDevices.removeOwned(uint64(instance))
		vk.DestroyInstance(vkInstance, nil)
	}
}

// EnumeratePhysicalDevices implements interface
func (v *Vulkan) EnumeratePhysicalDevices(instance Instance, count *uint32, devices []PhysicalDevice) Result {
	vkInstance, ok := v.instances.get(uint64(instance))
	if !ok {
		return ErrorInitializationFailed
	}

	if devices == nil {
		return Result(vk.EnumeratePhysicalDevices(vkInstance, count, nil))
	}

	var available uint32
	if res := vk.EnumeratePhysicalDevices(vkInstance, &available, nil); res != vk.Success {
		return Result(res)
	}
	vkDevices := make([]vk.PhysicalDevice, available)
	res := vk.EnumeratePhysicalDevices(vkInstance, &available, vkDevices)
	if res != vk.Success && res != vk.Incomplete {
		return Result(res)
	}

	written := *count
	if written > available {
		written = available
	}
	if written > uint32(len(devices)) {
		written = uint32(len(devices))
	}
	for i := uint32(0); i < written; i++ {
		devices[i] = PhysicalDevice(v.physicalDevices.addOwned(vkDevices[i], uint64(instance)))
	}
	*count = written
	if written < available {
		return Incomplete
	}
	return Success
}

// GetPhysicalDeviceProperties implements interface
func (v *Vulkan) GetPhysicalDeviceProperties(physicalDevice PhysicalDevice) PhysicalDeviceProperties {
	vkPhysicalDevice, ok := v.physicalDevices.get(uint64(physicalDevice))
	if !ok {
		return PhysicalDeviceProperties{}
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(vkPhysicalDevice, &properties)
	properties.Deref()
	return PhysicalDeviceProperties{
		APIVersion:    properties.ApiVersion,
		DriverVersion: properties.DriverVersion,
		VendorID:      properties.VendorID,
		DeviceID:      properties.DeviceID,
		DeviceType:    PhysicalDeviceType(properties.DeviceType),
		DeviceName:    vk.ToString(properties.DeviceName[:]),
	}
}

// GetPhysicalDeviceQueueFamilyProperties implements interface
func (v *Vulkan) GetPhysicalDeviceQueueFamilyProperties(physicalDevice PhysicalDevice, count *uint32, properties []QueueFamilyProperties) {
	vkPhysicalDevice, ok := v.physicalDevices.get(uint64(physicalDevice))
	if !ok {
		*count = 0
		return
	}

	if properties == nil {
		vk.GetPhysicalDeviceQueueFamilyProperties(vkPhysicalDevice, count, nil)
		return
	}

	queueFamilies := make([]vk.QueueFamilyProperties, *count)
	vk.GetPhysicalDeviceQueueFamilyProperties(vkPhysicalDevice, count, queueFamilies)
	for i := uint32(0); i < *count && int(i) < len(properties); i++ {
		queueFamilies[i].Deref()
		properties[i] = QueueFamilyProperties{
			QueueFlags: QueueFlags(queueFamilies[i].QueueFlags),
			QueueCount: queueFamilies[i].QueueCount,
		}
	}
}

// CreateDevice implements interface
func (v *Vulkan) CreateDevice(physicalDevice PhysicalDevice, info DeviceCreateInfo) (Device, Result) {
	vkPhysicalDevice, ok := v.physicalDevices.get(uint64(physicalDevice))
	if !ok {
		return 0, ErrorInitializationFailed
	}

	queueInfos := make([]vk.DeviceQueueCreateInfo, len(info.QueueCreateInfos))
	for i, qci := range info.QueueCreateInfos {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: qci.QueueFamilyIndex,
			QueueCount:       qci.QueueCount,
			PQueuePriorities: qci.Priorities,
		}
	}

	dci := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueInfos)),
		PQueueCreateInfos:    queueInfos,
	}

	var vkDevice vk.Device
	if res := vk.CreateDevice(vkPhysicalDevice, &dci, nil, &vkDevice); res != vk.Success {
		return 0, Result(res)
	}
	return Device(v.devices.add(vkDevice)), Success
}

// DestroyDevice implements interface
func (v *Vulkan) DestroyDevice(device Device) {
	if vkDevice, ok := v.devices.remove(uint64(device)); ok {
		v.queues.removeOwned(uint64(device))
		vk.DestroyDevice(vkDevice, nil)
	}
}

// GetDeviceQueue implements interface
func (v *Vulkan) GetDeviceQueue(device Device, queueFamilyIndex, queueIndex uint32) Queue {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return 0
	}

	var queue vk.Queue
	vk.GetDeviceQueue(vkDevice, queueFamilyIndex, queueIndex, &queue)
	if queue == nil {
		return 0
	}
	return Queue(v.queues.addOwned(queue, uint64(device)))
}

// CreateCommandPool implements interface
func (v *Vulkan) CreateCommandPool(device Device, info CommandPoolCreateInfo) (CommandPool, Result) {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return 0, ErrorDeviceLost
	}

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(info.Flags),
		QueueFamilyIndex: info.QueueFamilyIndex,
	}

	var commandPool vk.CommandPool
	if res := vk.CreateCommandPool(vkDevice, &cpci, nil, &commandPool); res != vk.Success {
		return 0, Result(res)
	}
	return CommandPool(v.commandPools.add(commandPool)), Success
}

// DestroyCommandPool implements interface
func (v *Vulkan) DestroyCommandPool(device Device, pool CommandPool) {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return
	}
	if commandPool, ok := v.commandPools.remove(uint64(pool)); ok {
		vk.DestroyCommandPool(vkDevice, commandPool, nil)
	}
}

// AllocateCommandBuffers implements interface
func (v *Vulkan) AllocateCommandBuffers(device Device, info CommandBufferAllocateInfo, buffers []CommandBuffer) Result {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return ErrorDeviceLost
	}
	commandPool, ok := v.commandPools.get(uint64(info.CommandPool))
	if !ok {
		return ErrorOutOfHostMemory
	}

	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        commandPool,
		Level:              vk.CommandBufferLevel(info.Level),
		CommandBufferCount: info.CommandBufferCount,
	}

	commandBuffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	if res := vk.AllocateCommandBuffers(vkDevice, &cbai, commandBuffers); res != vk.Success {
		return Result(res)
	}
	for i := range commandBuffers {
		if i < len(buffers) {
			buffers[i] = CommandBuffer(v.commandBuffers.add(commandBuffers[i]))
		}
	}
	return Success
}

// FreeCommandBuffers implements interface
func (v *Vulkan) FreeCommandBuffers(device Device, pool CommandPool, buffers []CommandBuffer) {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return
	}
	commandPool, ok := v.commandPools.get(uint64(pool))
	if !ok {
		return
	}

	var commandBuffers []vk.CommandBuffer
	for _, buffer := range buffers {
		if commandBuffer, ok := v.commandBuffers.remove(uint64(buffer)); ok {
			commandBuffers = append(commandBuffers, commandBuffer)
		}
	}
	if len(commandBuffers) > 0 {
		vk.FreeCommandBuffers(vkDevice, commandPool, uint32(len(commandBuffers)), commandBuffers)
	}
}

// BeginCommandBuffer implements interface
func (v *Vulkan) BeginCommandBuffer(buffer CommandBuffer, info CommandBufferBeginInfo) Result {
	commandBuffer, ok := v.commandBuffers.get(uint64(buffer))
	if !ok {
		return ErrorOutOfHostMemory
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(info.Flags),
	}
	return Result(vk.BeginCommandBuffer(commandBuffer, &cbbi))
}

// EndCommandBuffer implements interface
func (v *Vulkan) EndCommandBuffer(buffer CommandBuffer) Result {
	commandBuffer, ok := v.commandBuffers.get(uint64(buffer))
	if !ok {
		return ErrorOutOfHostMemory
	}
	return Result(vk.EndCommandBuffer(commandBuffer))
}

// CreateImage implements interface
func (v *Vulkan) CreateImage(device Device, info ImageCreateInfo) (Image, Result) {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return 0, ErrorDeviceLost
	}

	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType(info.ImageType),
		Format:    vk.Format(info.Format),
		Extent: vk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  info.Extent.Depth,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   info.ArrayLayers,
		Samples:       vk.SampleCountFlagBits(info.Samples),
		Tiling:        vk.ImageTiling(info.Tiling),
		Usage:         vk.ImageUsageFlags(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var image vk.Image
	if res := vk.CreateImage(vkDevice, &createInfo, nil, &image); res != vk.Success {
		return 0, Result(res)
	}
	return Image(v.images.add(image)), Success
}

// DestroyImage implements interface
func (v *Vulkan) DestroyImage(device Device, image Image) {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return
	}
	if vkImage, ok := v.images.remove(uint64(image)); ok {
		vk.DestroyImage(vkDevice, vkImage, nil)
	}
}

// GetImageMemoryRequirements implements interface
func (v *Vulkan) GetImageMemoryRequirements(device Device, image Image) MemoryRequirements {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return MemoryRequirements{}
	}
	vkImage, ok := v.images.get(uint64(image))
	if !ok {
		return MemoryRequirements{}
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(vkDevice, vkImage, &req)
	req.Deref()
	return MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

// BindImageMemory implements interface
func (v *Vulkan) BindImageMemory(device Device, image Image, memory DeviceMemory, offset uint64) Result {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return ErrorDeviceLost
	}
	vkImage, ok := v.images.get(uint64(image))
	if !ok {
		return ErrorOutOfHostMemory
	}
	vkMemory, ok := v.memories.get(uint64(memory))
	if !ok {
		return ErrorOutOfDeviceMemory
	}
	return Result(vk.BindImageMemory(vkDevice, vkImage, vkMemory, vk.DeviceSize(offset)))
}

// AllocateMemory implements interface
func (v *Vulkan) AllocateMemory(device Device, info MemoryAllocateInfo) (DeviceMemory, Result) {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return 0, ErrorDeviceLost
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(info.AllocationSize),
		MemoryTypeIndex: info.MemoryTypeIndex,
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(vkDevice, &mai, nil, &memory); res != vk.Success {
		return 0, Result(res)
	}
	return DeviceMemory(v.memories.add(memory)), Success
}

// FreeMemory implements interface
func (v *Vulkan) FreeMemory(device Device, memory DeviceMemory) {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return
	}
	if vkMemory, ok := v.memories.remove(uint64(memory)); ok {
		vk.FreeMemory(vkDevice, vkMemory, nil)
	}
}

// AdoptPipeline registers a pipeline compiled outside of the driver so the
// translation core can own it.
func (v *Vulkan) AdoptPipeline(pipeline vk.Pipeline) Pipeline {
	return Pipeline(v.pipelines.add(pipeline))
}

// DestroyPipeline implements interface
func (v *Vulkan) DestroyPipeline(device Device, pipeline Pipeline) {
	vkDevice, ok := v.devices.get(uint64(device))
	if !ok {
		return
	}
	if vkPipeline, ok := v.pipelines.remove(uint64(pipeline)); ok {
		vk.DestroyPipeline(vkDevice, vkPipeline, nil)
	}
}

// String describes the number of live native objects, for diagnostics.
func (v *Vulkan) String() string {
	return fmt.Sprintf("vulkan(instances=%d devices=%d pools=%d images=%d memories=%d)",
		v.instances.len(), v.devices.len(), v.commandPools.len(), v.images.len(), v.memories.len())
}

func safeString(s string) string {
	return fmt.Sprintf("%s\x00", s)
}

func safeStrings(sgs []string) []string {
	safe := []string{}
	for _, s := range sgs {
		safe = append(safe, fmt.Sprintf("%s\x00", s))
	}
	return safe
}
