// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/grvk/core"
	"github.com/devblok/grvk/device"
	"github.com/devblok/grvk/utility/trace"
)

func init() {
	runtime.LockOSThread()
}

var (
	envFile = flag.String("env", ".env", "Environment file to load settings from")
	smoke   = flag.Bool("smoke", false, "Create a device and record an empty command buffer on the first GPU")
)

var appInfo = core.ApplicationInfo{
	AppName:       "grvkinfo",
	AppVersion:    1,
	EngineName:    "grvk",
	EngineVersion: 1,
	APIVersion:    0x00010000,
}

type gpuReport struct {
	Index      int
	Properties core.PhysicalGpuProperties
	Queues     []core.QueueProperties
}

func main() {
	flag.Parse()

	cfg, err := core.LoadConfiguration(*envFile)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger := core.NewLogger(cfg)

	driver, err := device.NewVulkanDriver(device.VulkanConfiguration{
		DebugMode: cfg.Debug,
	})
	if err != nil {
		logger.WithError(err).Fatal("vulkan unavailable")
	}

	opts := []core.Option{core.WithLogger(logger)}
	var recorder *trace.Recorder
	if cfg.TraceFile != "" {
		recorder = trace.NewRecorder(trace.Header{
			Author:      currentUserName(),
			DateCreated: time.Now().Unix(),
			Version:     1,
		})
		opts = append(opts, core.WithRecorder(recorder))
	}
	ctx := core.NewContext(driver, opts...)

	err = run(ctx)
	ctx.Destroy()
	if recorder != nil {
		if err := writeTrace(recorder, cfg.TraceFile); err != nil {
			logger.WithError(err).Error("trace not written")
		}
	}
	if err != nil {
		logger.WithError(err).Fatal(core.ResultOf(err))
	}
}

func run(ctx *core.Context) error {
	gpus, err := ctx.InitAndEnumerateGpus(&appInfo, nil)
	if err != nil {
		return errors.Wrap(err, "enumerate gpus")
	}

	reports := make([]gpuReport, 0, len(gpus))
	for _, gpu := range gpus {
		props, err := core.GpuProperties(gpu)
		if err != nil {
			return errors.Wrapf(err, "gpu %d properties", gpu.Index())
		}
		queues, err := core.GpuQueueProperties(gpu)
		if err != nil {
			return errors.Wrapf(err, "gpu %d queues", gpu.Index())
		}
		reports = append(reports, gpuReport{
			Index:      gpu.Index(),
			Properties: props,
			Queues:     queues,
		})
	}

	bytes, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", bytes)

	if *smoke {
		if len(reports) == 0 {
			return errors.New("no gpu to run on")
		}
		if err := smokeTest(ctx, gpus[0], reports[0].Queues); err != nil {
			return errors.Wrap(err, "smoke test")
		}
		fmt.Println("smoke test passed")
	}
	return nil
}

// smokeTest creates a device with every universal queue, takes the first
// queue and records an empty command buffer for it.
func smokeTest(ctx *core.Context, gpu *core.PhysicalGpu, queues []core.QueueProperties) error {
	var universal *core.QueueProperties
	for i := range queues {
		if queues[i].QueueType == core.QueueUniversal {
			universal = &queues[i]
		}
	}
	if universal == nil {
		return errors.Wrap(core.ErrorInvalidQueueType, "no universal queue")
	}

	dev, err := ctx.CreateDevice(gpu, &core.DeviceCreateInfo{
		RequestedQueues: []core.QueueRequest{{Type: core.QueueUniversal, Count: universal.QueueCount}},
	})
	if err != nil {
		return err
	}
	defer core.DestroyDevice(dev)

	if _, err := core.GetDeviceQueue(dev, core.QueueUniversal, 0); err != nil {
		return err
	}

	cb, err := core.CreateCommandBuffer(dev, &core.CmdBufferCreateInfo{QueueType: core.QueueUniversal})
	if err != nil {
		return err
	}
	defer core.DestroyObject(cb)

	if err := core.BeginCommandBuffer(cb, core.CmdBufferOptimizeOneTimeSubmit); err != nil {
		return err
	}
	return core.EndCommandBuffer(cb)
}

func writeTrace(recorder *trace.Recorder, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := recorder.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func currentUserName() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}
