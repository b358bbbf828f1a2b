// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/devblok/grvk/device"
	"github.com/devblok/grvk/utility/trace"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Option configures a Context.
type Option func(*Context)

// WithLogger makes the Context log through logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Context) {
		c.log = logger.WithField("component", "grvk")
	}
}

// WithRecorder records every legacy call made through the Context.
func WithRecorder(recorder *trace.Recorder) Option {
	return func(c *Context) {
		c.recorder = recorder
	}
}

// NewContext creates a Context translating onto driver. It holds no
// instance until InitAndEnumerateGpus is called.
func NewContext(driver device.Driver, opts ...Option) *Context {
	c := &Context{
		driver:  driver,
		log:     log.StandardLogger().WithField("component", "grvk"),
		allocCb: DefaultAllocCallbacks,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Context owns what the legacy API keeps per process: the target
// instance and the allocator callbacks. A Context has a single owner that
// serializes InitAndEnumerateGpus and Destroy.
type Context struct {
	driver   device.Driver
	log      *log.Entry
	recorder *trace.Recorder

	allocCb     AllocCallbacks
	instance    device.Instance
	hasInstance bool

	// generation invalidates PhysicalGpus of a destroyed instance
	generation uint64
}

// PhysicalGpu is a physical device enumerated by a Context.
type PhysicalGpu struct {
	ctx        *Context
	handle     device.PhysicalDevice
	index      int
	generation uint64
}

// Type implements interface
func (*PhysicalGpu) Type() ObjectType {
	return ObjectTypePhysicalGpu
}

func (*PhysicalGpu) baseObject() {}

// Index is the position of the GPU in the enumeration.
func (g *PhysicalGpu) Index() int {
	return g.index
}

func (g *PhysicalGpu) valid() bool {
	return g != nil && g.ctx.hasInstance && g.generation == g.ctx.generation
}

// InitAndEnumerateGpus (re)creates the target instance and returns at most
// MaxPhysicalGpus GPUs. A previous instance is destroyed first, together
// with the validity of the GPUs it reported. Nil allocCb installs
// DefaultAllocCallbacks.
func (c *Context) InitAndEnumerateGpus(appInfo *ApplicationInfo, allocCb *AllocCallbacks) (gpus []*PhysicalGpu, err error) {
	defer func() {
		c.record("grInitAndEnumerateGpus", err, "%+v", appInfo)
	}()

	if appInfo == nil {
		return nil, errors.Wrap(ErrorInvalidPointer, "application info")
	}

	c.log.WithFields(log.Fields{
		"app":           appInfo.AppName,
		"appVersion":    fmt.Sprintf("%08X", appInfo.AppVersion),
		"engine":        appInfo.EngineName,
		"engineVersion": fmt.Sprintf("%08X", appInfo.EngineVersion),
		"api":           fmt.Sprintf("%08X", appInfo.APIVersion),
	}).Trace("grInitAndEnumerateGpus")

	if allocCb == nil {
		c.allocCb = DefaultAllocCallbacks
	} else if allocCb.Alloc == nil || allocCb.Free == nil {
		return nil, errors.Wrap(ErrorInvalidPointer, "allocation callbacks")
	} else {
		c.allocCb = *allocCb
	}

	c.destroyInstance()

	instance, res := c.driver.CreateInstance(device.InstanceCreateInfo{
		ApplicationName:    appInfo.AppName,
		ApplicationVersion: appInfo.AppVersion,
		EngineName:         appInfo.EngineName,
		EngineVersion:      appInfo.EngineVersion,
		APIVersion:         targetAPIVersion,
	})
	if res != device.Success {
		c.log.WithField("result", res).Warn("instance creation failed")
		return nil, ErrorInitializationFailed
	}
	c.instance = instance
	c.hasInstance = true

	var count uint32
	if res := c.driver.EnumeratePhysicalDevices(instance, &count, nil); res != device.Success {
		return nil, errors.Wrap(resultFromDevice(res), "physical device count")
	}
	if count > MaxPhysicalGpus {
		c.log.WithField("available", count).Debug("physical devices truncated")
		count = MaxPhysicalGpus
	}

	physicalDevices := make([]device.PhysicalDevice, count)
	res = c.driver.EnumeratePhysicalDevices(instance, &count, physicalDevices)
	if res != device.Success && res != device.Incomplete {
		return nil, errors.Wrap(resultFromDevice(res), "physical devices")
	}

	gpus = make([]*PhysicalGpu, count)
	for i := range gpus {
		gpus[i] = &PhysicalGpu{
			ctx:        c,
			handle:     physicalDevices[i],
			index:      i,
			generation: c.generation,
		}
	}
	return gpus, nil
}

// Destroy releases the target instance. Devices must be destroyed first.
func (c *Context) Destroy() {
	c.record("grDestroyInstance", nil, "")
	c.destroyInstance()
}

func (c *Context) destroyInstance() {
	if !c.hasInstance {
		return
	}
	c.driver.DestroyInstance(c.instance)
	c.instance = 0
	c.hasInstance = false
	c.generation++
}

// record adds a finished call to the trace, if one is attached.
func (c *Context) record(name string, err error, format string, args ...interface{}) {
	if c == nil || c.recorder == nil {
		return
	}
	c.recorder.Record(name, fmt.Sprintf(format, args...), ResultOf(err).String())
}
