// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go host backend.
//
// Element-wise kernels split large buffers across goroutines; scaling and
// accumulation use gonum's BLAS level-1 routines.
package cpu

import (
	internalcpu "github.com/born-ml/gradcore/internal/backend/cpu"
	"github.com/born-ml/gradcore/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Config configures the host backend.
type Config = internalcpu.Config

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// DefaultConfig returns the default host backend configuration.
func DefaultConfig() Config {
	return internalcpu.DefaultConfig()
}

// New creates a new CPU backend.
//
// Example:
//
//	ctx := tensor.NewContextWithBackends(tensor.DefaultConfig(), cpu.New())
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with cfg, for example to cap memory use.
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
