// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/gradcore/internal/backend/cpu"
	"github.com/born-ml/gradcore/internal/backend/webgpu"
	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/rs/zerolog/log"
)

// Type aliases for public API

// Tensor is a float32 array with a shape, a device and optional autograd linkage.
type Tensor = tensor.Tensor

// Shape represents tensor dimensions. An empty Shape is a scalar.
type Shape = tensor.Shape

// Device identifies where a tensor lives.
type Device = tensor.Device

// Device constants.
const (
	Host        = tensor.Host
	Accelerator = tensor.Accelerator
)

// Backend is the storage and kernel contract each device implements.
type Backend = tensor.Backend

// Buffer is a device-resident float32 array owned by a Backend.
type Buffer = tensor.Buffer

// Operation is a graph node recorded by a differentiable function.
type Operation = tensor.Operation

// OpKind tags the operation that produced a tensor.
type OpKind = tensor.OpKind

// Context owns the per-device backends and the random generator.
type Context = tensor.Context

// Config configures a Context.
type Config = tensor.Config

// Generator is the seeded random source behind Rand.
type Generator = tensor.Generator

// Option configures a tensor created by a Context factory.
type Option = tensor.Option

// DefaultSeed is the seed used by DefaultConfig.
const DefaultSeed = tensor.DefaultSeed

// Errors.
var (
	ErrShapeMismatch       = tensor.ErrShapeMismatch
	ErrDeviceMismatch      = tensor.ErrDeviceMismatch
	ErrUnsupportedDevice   = tensor.ErrUnsupportedDevice
	ErrOutOfMemory         = tensor.ErrOutOfMemory
	ErrNotScalar           = tensor.ErrNotScalar
	ErrNoGradGraph         = tensor.ErrNoGradGraph
	ErrMissingGradient     = tensor.ErrMissingGradient
	ErrInvalidLearningRate = tensor.ErrInvalidLearningRate
	ErrReleased            = tensor.ErrReleased
)

// DefaultConfig returns the default context configuration.
func DefaultConfig() Config {
	return tensor.DefaultConfig()
}

// NewContext creates a context with the host backend and, when WebGPU is
// available, the accelerator backend registered.
func NewContext(cfg Config) *Context {
	ctx := tensor.NewContext(cfg, cpu.New())
	if !webgpu.IsAvailable() {
		return ctx
	}
	accel, err := webgpu.New()
	if err != nil {
		log.Debug().Err(err).Msg("accelerator unavailable")
		return ctx
	}
	ctx.Register(accel)
	return ctx
}

// NewContextWithBackends creates a context with exactly the given backends.
func NewContextWithBackends(cfg Config, backends ...Backend) *Context {
	return tensor.NewContext(cfg, backends...)
}

// OnDevice places a new tensor on d.
func OnDevice(d Device) Option {
	return tensor.OnDevice(d)
}

// RequiresGrad enables or disables gradient tracking for a new tensor.
func RequiresGrad(v bool) Option {
	return tensor.RequiresGrad(v)
}

// ParseDevice maps a device name ("cpu", "gpu", ...) to a Device.
func ParseDevice(name string) (Device, error) {
	return tensor.ParseDevice(name)
}

// NewGenerator creates a random generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return tensor.NewGenerator(seed)
}
