// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package devicetest provides a scriptable device.Driver for tests.
// It records every call, hands out unique handles and lets a test inject
// failing results per operation.
package devicetest

import (
	"sync"

	"github.com/devblok/grvk/device"
)

var _ device.Driver = (*Driver)(nil)

// Bind records one BindImageMemory call.
type Bind struct {
	Device device.Device
	Image  device.Image
	Memory device.DeviceMemory
	Offset uint64
}

// Driver is a fake target API. Exported fields configure behaviour and
// may be changed between calls.
type Driver struct {
	// PhysicalDeviceCount is the number of physical devices reported.
	PhysicalDeviceCount int

	// QueueFamilies is the queue family layout of every physical device.
	QueueFamilies []device.QueueFamilyProperties

	// Properties is reported for every physical device, the name is
	// used as is.
	Properties device.PhysicalDeviceProperties

	// ImageRequirements is reported for every image.
	ImageRequirements device.MemoryRequirements

	// Results injected into the matching operation, zero means Success.
	CreateInstanceResult         device.Result
	EnumerateResult              device.Result
	CreateDeviceResult           device.Result
	CreateCommandPoolResult      device.Result
	AllocateCommandBuffersResult device.Result
	BeginCommandBufferResult     device.Result
	EndCommandBufferResult       device.Result
	CreateImageResult            device.Result
	BindImageMemoryResult        device.Result
	AllocateMemoryResult         device.Result

	mutex sync.Mutex
	last  uint64
	calls map[string]int
	live  map[uint64]string

	instanceInfos    []device.InstanceCreateInfo
	deviceInfos      []device.DeviceCreateInfo
	commandPoolInfos []device.CommandPoolCreateInfo
	beginInfos       []device.CommandBufferBeginInfo
	imageInfos       []device.ImageCreateInfo
	memoryInfos      []device.MemoryAllocateInfo
	binds            []Bind
	queueLookups     [][2]uint32
}

// NewDriver creates a Driver with one physical device exposing a
// universal family of one queue and a compute family of two queues.
func NewDriver() *Driver {
	return &Driver{
		PhysicalDeviceCount: 1,
		QueueFamilies: []device.QueueFamilyProperties{
			{QueueFlags: device.QueueGraphicsBit | device.QueueComputeBit | device.QueueTransferBit, QueueCount: 1},
			{QueueFlags: device.QueueComputeBit | device.QueueTransferBit, QueueCount: 2},
		},
		Properties: device.PhysicalDeviceProperties{
			APIVersion: 1<<22 | 1<<12,
			VendorID:   0x1002,
			DeviceID:   0x67df,
			DeviceType: device.PhysicalDeviceTypeDiscreteGpu,
			DeviceName: "Fake GPU",
		},
		ImageRequirements: device.MemoryRequirements{
			Size:           65536,
			Alignment:      4096,
			MemoryTypeBits: 0x3,
		},
	}
}

func (d *Driver) record(name string) {
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[name]++
}

func (d *Driver) handle(kind string) uint64 {
	if d.live == nil {
		d.live = make(map[uint64]string)
	}
	d.last++
	d.live[d.last] = kind
	return d.last
}

func (d *Driver) release(h uint64) {
	delete(d.live, h)
}

// Calls returns how many times the named Driver method was called.
func (d *Driver) Calls(name string) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.calls[name]
}

// Live returns the number of live handles of the given kind
// ("instance", "device", "commandPool", "commandBuffer", "image", "memory").
func (d *Driver) Live(kind string) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	var n int
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

// InstanceInfos returns the create infos of all CreateInstance calls.
func (d *Driver) InstanceInfos() []device.InstanceCreateInfo {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]device.InstanceCreateInfo(nil), d.instanceInfos...)
}

// DeviceInfos returns the create infos of all CreateDevice calls.
func (d *Driver) DeviceInfos() []device.DeviceCreateInfo {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]device.DeviceCreateInfo(nil), d.deviceInfos...)
}

// CommandPoolInfos returns the create infos of all CreateCommandPool calls.
func (d *Driver) CommandPoolInfos() []device.CommandPoolCreateInfo {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]device.CommandPoolCreateInfo(nil), d.commandPoolInfos...)
}

// BeginInfos returns the begin infos of all BeginCommandBuffer calls.
func (d *Driver) BeginInfos() []device.CommandBufferBeginInfo {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]device.CommandBufferBeginInfo(nil), d.beginInfos...)
}

// ImageInfos returns the create infos of all CreateImage calls.
func (d *Driver) ImageInfos() []device.ImageCreateInfo {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]device.ImageCreateInfo(nil), d.imageInfos...)
}

// MemoryInfos returns the allocate infos of all AllocateMemory calls.
func (d *Driver) MemoryInfos() []device.MemoryAllocateInfo {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]device.MemoryAllocateInfo(nil), d.memoryInfos...)
}

// Binds returns all BindImageMemory calls.
func (d *Driver) Binds() []Bind {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]Bind(nil), d.binds...)
}

// QueueLookups returns the (family, index) pairs of all GetDeviceQueue calls.
func (d *Driver) QueueLookups() [][2]uint32 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([][2]uint32(nil), d.queueLookups...)
}

// CreateInstance implements interface
func (d *Driver) CreateInstance(info device.InstanceCreateInfo) (device.Instance, device.Result) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("CreateInstance")
	d.instanceInfos = append(d.instanceInfos, info)
	if d.CreateInstanceResult != device.Success {
		return 0, d.CreateInstanceResult
	}
	return device.Instance(d.handle("instance")), device.Success
}

// DestroyInstance implements interface
func (d *Driver) DestroyInstance(instance device.Instance) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("DestroyInstance")
	d.release(uint64(instance))
}

// EnumeratePhysicalDevices implements interface
func (d *Driver) EnumeratePhysicalDevices(instance device.Instance, count *uint32, devices []device.PhysicalDevice) device.Result {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("EnumeratePhysicalDevices")
	if d.EnumerateResult != device.Success {
		return d.EnumerateResult
	}

	available := uint32(d.PhysicalDeviceCount)
	if devices == nil {
		*count = available
		return device.Success
	}

	written := *count
	if written > available {
		written = available
	}
	if written > uint32(len(devices)) {
		written = uint32(len(devices))
	}
	for i := uint32(0); i < written; i++ {
		// Physical devices are stable per instance and index.
		devices[i] = device.PhysicalDevice(uint64(instance)<<16 | uint64(i+1))
	}
	*count = written
	if written < available {
		return device.Incomplete
	}
	return device.Success
}

// GetPhysicalDeviceProperties implements interface
func (d *Driver) GetPhysicalDeviceProperties(physicalDevice device.PhysicalDevice) device.PhysicalDeviceProperties {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("GetPhysicalDeviceProperties")
	return d.Properties
}

// GetPhysicalDeviceQueueFamilyProperties implements interface
func (d *Driver) GetPhysicalDeviceQueueFamilyProperties(physicalDevice device.PhysicalDevice, count *uint32, properties []device.QueueFamilyProperties) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("GetPhysicalDeviceQueueFamilyProperties")
	if properties == nil {
		*count = uint32(len(d.QueueFamilies))
		return
	}
	*count = uint32(copy(properties[:min(int(*count), len(properties))], d.QueueFamilies))
}

// CreateDevice implements interface
func (d *Driver) CreateDevice(physicalDevice device.PhysicalDevice, info device.DeviceCreateInfo) (device.Device, device.Result) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("CreateDevice")

	// The caller may release the priority arrays after the call.
	copied := device.DeviceCreateInfo{}
	for _, qci := range info.QueueCreateInfos {
		qci.Priorities = append([]float32(nil), qci.Priorities...)
		copied.QueueCreateInfos = append(copied.QueueCreateInfos, qci)
	}
	d.deviceInfos = append(d.deviceInfos, copied)

	if d.CreateDeviceResult != device.Success {
		return 0, d.CreateDeviceResult
	}
	return device.Device(d.handle("device")), device.Success
}

// DestroyDevice implements interface
func (d *Driver) DestroyDevice(dev device.Device) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("DestroyDevice")
	d.release(uint64(dev))
}

// GetDeviceQueue implements interface
func (d *Driver) GetDeviceQueue(dev device.Device, queueFamilyIndex, queueIndex uint32) device.Queue {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("GetDeviceQueue")
	d.queueLookups = append(d.queueLookups, [2]uint32{queueFamilyIndex, queueIndex})
	return device.Queue(uint64(dev)<<32 | uint64(queueFamilyIndex)<<16 | uint64(queueIndex) | 1<<63)
}

// CreateCommandPool implements interface
func (d *Driver) CreateCommandPool(dev device.Device, info device.CommandPoolCreateInfo) (device.CommandPool, device.Result) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("CreateCommandPool")
	d.commandPoolInfos = append(d.commandPoolInfos, info)
	if d.CreateCommandPoolResult != device.Success {
		return 0, d.CreateCommandPoolResult
	}
	return device.CommandPool(d.handle("commandPool")), device.Success
}

// DestroyCommandPool implements interface
func (d *Driver) DestroyCommandPool(dev device.Device, pool device.CommandPool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("DestroyCommandPool")
	d.release(uint64(pool))
}

// AllocateCommandBuffers implements interface
func (d *Driver) AllocateCommandBuffers(dev device.Device, info device.CommandBufferAllocateInfo, buffers []device.CommandBuffer) device.Result {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("AllocateCommandBuffers")
	if d.AllocateCommandBuffersResult != device.Success {
		return d.AllocateCommandBuffersResult
	}
	for i := uint32(0); i < info.CommandBufferCount && int(i) < len(buffers); i++ {
		buffers[i] = device.CommandBuffer(d.handle("commandBuffer"))
	}
	return device.Success
}

// FreeCommandBuffers implements interface
func (d *Driver) FreeCommandBuffers(dev device.Device, pool device.CommandPool, buffers []device.CommandBuffer) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("FreeCommandBuffers")
	for _, b := range buffers {
		d.release(uint64(b))
	}
}

// BeginCommandBuffer implements interface
func (d *Driver) BeginCommandBuffer(buffer device.CommandBuffer, info device.CommandBufferBeginInfo) device.Result {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("BeginCommandBuffer")
	d.beginInfos = append(d.beginInfos, info)
	return d.BeginCommandBufferResult
}

// EndCommandBuffer implements interface
func (d *Driver) EndCommandBuffer(buffer device.CommandBuffer) device.Result {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("EndCommandBuffer")
	return d.EndCommandBufferResult
}

// CreateImage implements interface
func (d *Driver) CreateImage(dev device.Device, info device.ImageCreateInfo) (device.Image, device.Result) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("CreateImage")
	d.imageInfos = append(d.imageInfos, info)
	if d.CreateImageResult != device.Success {
		return 0, d.CreateImageResult
	}
	return device.Image(d.handle("image")), device.Success
}

// DestroyImage implements interface
func (d *Driver) DestroyImage(dev device.Device, image device.Image) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("DestroyImage")
	d.release(uint64(image))
}

// GetImageMemoryRequirements implements interface
func (d *Driver) GetImageMemoryRequirements(dev device.Device, image device.Image) device.MemoryRequirements {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("GetImageMemoryRequirements")
	return d.ImageRequirements
}

// BindImageMemory implements interface
func (d *Driver) BindImageMemory(dev device.Device, image device.Image, memory device.DeviceMemory, offset uint64) device.Result {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("BindImageMemory")
	d.binds = append(d.binds, Bind{Device: dev, Image: image, Memory: memory, Offset: offset})
	return d.BindImageMemoryResult
}

// AllocateMemory implements interface
func (d *Driver) AllocateMemory(dev device.Device, info device.MemoryAllocateInfo) (device.DeviceMemory, device.Result) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("AllocateMemory")
	d.memoryInfos = append(d.memoryInfos, info)
	if d.AllocateMemoryResult != device.Success {
		return 0, d.AllocateMemoryResult
	}
	return device.DeviceMemory(d.handle("memory")), device.Success
}

// FreeMemory implements interface
func (d *Driver) FreeMemory(dev device.Device, memory device.DeviceMemory) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("FreeMemory")
	d.release(uint64(memory))
}

// NewPipeline hands out a pipeline handle as an external compiler would.
func (d *Driver) NewPipeline() device.Pipeline {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return device.Pipeline(d.handle("pipeline"))
}

// DestroyPipeline implements interface
func (d *Driver) DestroyPipeline(dev device.Device, pipeline device.Pipeline) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.record("DestroyPipeline")
	d.release(uint64(pipeline))
}
