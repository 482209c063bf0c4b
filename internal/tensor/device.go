package tensor

import (
	"fmt"
	"strings"
)

// Device identifies where a tensor's buffers live and where its kernels run.
type Device int

// Supported compute devices.
const (
	Host Device = iota
	Accelerator
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case Host:
		return "host"
	case Accelerator:
		return "accelerator"
	default:
		return "unknown"
	}
}

// ParseDevice maps a device name to a Device.
// "cpu" and "gpu"/"cuda" are accepted as aliases.
func ParseDevice(name string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "host", "cpu", "":
		return Host, nil
	case "accelerator", "gpu", "cuda", "webgpu":
		return Accelerator, nil
	default:
		return Host, fmt.Errorf("unknown device %q: %w", name, ErrUnsupportedDevice)
	}
}
