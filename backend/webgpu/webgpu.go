// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU accelerator backend.
//
// The backend is built on Windows; on other platforms New returns
// tensor.ErrUnsupportedDevice and IsAvailable reports false.
package webgpu

import (
	internalwebgpu "github.com/born-ml/gradcore/internal/backend/webgpu"
	"github.com/born-ml/gradcore/tensor"
)

// Backend is the WebGPU accelerator backend.
type Backend = internalwebgpu.Backend

// Config configures the accelerator backend.
type Config = internalwebgpu.Config

var _ tensor.Backend = (*Backend)(nil)

// DefaultConfig returns the default accelerator configuration.
func DefaultConfig() Config {
	return internalwebgpu.DefaultConfig()
}

// New creates a WebGPU backend. Call Release when done with it.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// NewWithConfig creates a WebGPU backend with cfg.
func NewWithConfig(cfg Config) (*Backend, error) {
	return internalwebgpu.NewWithConfig(cfg)
}

// IsAvailable reports whether a WebGPU adapter can be obtained.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
