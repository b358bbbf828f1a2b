// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/devblok/grvk/device"
	"github.com/pkg/errors"
)

// Result is a legacy API result code. Every value except Success can be
// used as an error.
type Result int32

// Legacy result codes
const (
	Success     Result = 0x10000
	Unsupported Result = 0x10001
	NotReady    Result = 0x10002
	Timeout     Result = 0x10003
	EventSet    Result = 0x10004
	EventReset  Result = 0x10005

	ErrorUnknown                 Result = 0x11000
	ErrorUnavailable             Result = 0x11001
	ErrorInitializationFailed    Result = 0x11002
	ErrorOutOfMemory             Result = 0x11003
	ErrorOutOfGpuMemory          Result = 0x11004
	ErrorDeviceAlreadyCreated    Result = 0x11005
	ErrorDeviceLost              Result = 0x11006
	ErrorInvalidPointer          Result = 0x11007
	ErrorInvalidValue            Result = 0x11008
	ErrorInvalidHandle           Result = 0x11009
	ErrorInvalidOrdinal          Result = 0x1100A
	ErrorInvalidMemorySize       Result = 0x1100B
	ErrorInvalidExtension        Result = 0x1100C
	ErrorInvalidFlags            Result = 0x1100D
	ErrorInvalidAlignment        Result = 0x1100E
	ErrorInvalidFormat           Result = 0x1100F
	ErrorInvalidImage            Result = 0x11010
	ErrorInvalidDescriptorSet    Result = 0x11011
	ErrorInvalidQueueType        Result = 0x11012
	ErrorInvalidObjectType       Result = 0x11013
	ErrorMemoryMapFailed         Result = 0x1101B
	ErrorIncompatibleDriver      Result = 0x1101D
	ErrorIncompleteCommandBuffer Result = 0x1101E
	ErrorBuildingCommandBuffer   Result = 0x1101F
)

var resultNames = map[Result]string{
	Success:                      "GR_SUCCESS",
	Unsupported:                  "GR_UNSUPPORTED",
	NotReady:                     "GR_NOT_READY",
	Timeout:                      "GR_TIMEOUT",
	EventSet:                     "GR_EVENT_SET",
	EventReset:                   "GR_EVENT_RESET",
	ErrorUnknown:                 "GR_ERROR_UNKNOWN",
	ErrorUnavailable:             "GR_ERROR_UNAVAILABLE",
	ErrorInitializationFailed:    "GR_ERROR_INITIALIZATION_FAILED",
	ErrorOutOfMemory:             "GR_ERROR_OUT_OF_MEMORY",
	ErrorOutOfGpuMemory:          "GR_ERROR_OUT_OF_GPU_MEMORY",
	ErrorDeviceAlreadyCreated:    "GR_ERROR_DEVICE_ALREADY_CREATED",
	ErrorDeviceLost:              "GR_ERROR_DEVICE_LOST",
	ErrorInvalidPointer:          "GR_ERROR_INVALID_POINTER",
	ErrorInvalidValue:            "GR_ERROR_INVALID_VALUE",
	ErrorInvalidHandle:           "GR_ERROR_INVALID_HANDLE",
	ErrorInvalidOrdinal:          "GR_ERROR_INVALID_ORDINAL",
	ErrorInvalidMemorySize:       "GR_ERROR_INVALID_MEMORY_SIZE",
	ErrorInvalidExtension:        "GR_ERROR_INVALID_EXTENSION",
	ErrorInvalidFlags:            "GR_ERROR_INVALID_FLAGS",
	ErrorInvalidAlignment:        "GR_ERROR_INVALID_ALIGNMENT",
	ErrorInvalidFormat:           "GR_ERROR_INVALID_FORMAT",
	ErrorInvalidImage:            "GR_ERROR_INVALID_IMAGE",
	ErrorInvalidDescriptorSet:    "GR_ERROR_INVALID_DESCRIPTOR_SET_DATA",
	ErrorInvalidQueueType:        "GR_ERROR_INVALID_QUEUE_TYPE",
	ErrorInvalidObjectType:       "GR_ERROR_INVALID_OBJECT_TYPE",
	ErrorMemoryMapFailed:         "GR_ERROR_MEMORY_MAP_FAILED",
	ErrorIncompatibleDriver:      "GR_ERROR_INCOMPATIBLE_DRIVER",
	ErrorIncompleteCommandBuffer: "GR_ERROR_INCOMPLETE_COMMAND_BUFFER",
	ErrorBuildingCommandBuffer:   "GR_ERROR_BUILDING_COMMAND_BUFFER",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("GR_RESULT(0x%X)", int32(r))
}

// Error implements error
func (r Result) Error() string {
	return r.String()
}

// ResultOf recovers the legacy result code carried by err. A nil error is
// Success, errors that carry no Result are ErrorUnknown.
func ResultOf(err error) Result {
	if err == nil {
		return Success
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return ErrorUnknown
}

// resultFromDevice maps a target API status code onto a legacy result.
func resultFromDevice(res device.Result) Result {
	switch res {
	case device.Success:
		return Success
	case device.NotReady:
		return NotReady
	case device.Timeout:
		return Timeout
	case device.EventSet:
		return EventSet
	case device.EventReset:
		return EventReset
	case device.ErrorOutOfHostMemory, device.ErrorTooManyObjects:
		return ErrorOutOfMemory
	case device.ErrorOutOfDeviceMemory:
		return ErrorOutOfGpuMemory
	case device.ErrorInitializationFailed:
		return ErrorInitializationFailed
	case device.ErrorDeviceLost:
		return ErrorDeviceLost
	case device.ErrorMemoryMapFailed:
		return ErrorMemoryMapFailed
	case device.ErrorIncompatibleDriver:
		return ErrorIncompatibleDriver
	case device.ErrorFormatNotSupported:
		return ErrorInvalidFormat
	}
	return ErrorUnknown
}

// errorFromDevice is resultFromDevice as an error, nil on success.
func errorFromDevice(res device.Result) error {
	if r := resultFromDevice(res); r != Success {
		return r
	}
	return nil
}
