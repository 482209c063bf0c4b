//go:build !windows

// Package webgpu implements the accelerator backend on WebGPU compute shaders.
// WebGPU bindings are only built on Windows; elsewhere this package reports the
// accelerator as unavailable.
package webgpu

import (
	"fmt"

	"github.com/born-ml/gradcore/internal/tensor"
)

// Config configures the accelerator backend.
type Config struct {
	// MaxBatchSize is the number of queued command buffers that triggers a submit.
	MaxBatchSize int
}

// DefaultConfig returns the default accelerator configuration.
func DefaultConfig() Config {
	return Config{MaxBatchSize: 64}
}

// Backend is the accelerator backend. It cannot be constructed on this platform.
type Backend struct{}

var _ tensor.Backend = (*Backend)(nil)

var errUnavailable = fmt.Errorf("webgpu: not supported on this platform: %w", tensor.ErrUnsupportedDevice)

// New returns tensor.ErrUnsupportedDevice on this platform.
func New() (*Backend, error) {
	return nil, errUnavailable
}

// NewWithConfig returns tensor.ErrUnsupportedDevice on this platform.
func NewWithConfig(Config) (*Backend, error) {
	return nil, errUnavailable
}

// IsAvailable always reports false on this platform.
func IsAvailable() bool {
	return false
}

func (b *Backend) Release()                                  {}
func (b *Backend) Name() string                              { return "WebGPU" }
func (b *Backend) Device() tensor.Device                     { return tensor.Accelerator }
func (b *Backend) Allocate(int) (tensor.Buffer, error)       { return nil, errUnavailable }
func (b *Backend) Free(tensor.Buffer)                        {}
func (b *Backend) Fill(tensor.Buffer, float32) error         { return errUnavailable }
func (b *Backend) Add(_, _, _ tensor.Buffer) error           { return errUnavailable }
func (b *Backend) Sub(_, _, _ tensor.Buffer) error           { return errUnavailable }
func (b *Backend) Mul(_, _, _ tensor.Buffer) error           { return errUnavailable }
func (b *Backend) Div(_, _, _ tensor.Buffer) error           { return errUnavailable }
func (b *Backend) Square(_, _ tensor.Buffer) error           { return errUnavailable }
func (b *Backend) Scale(_, _ tensor.Buffer, _ float32) error { return errUnavailable }
func (b *Backend) AddScaled(tensor.Buffer, float32, tensor.Buffer) error {
	return errUnavailable
}
func (b *Backend) Equal(_, _, _ tensor.Buffer, _ float32) error { return errUnavailable }
func (b *Backend) Sum(_, _ tensor.Buffer) error                 { return errUnavailable }
func (b *Backend) Broadcast(_, _ tensor.Buffer) error           { return errUnavailable }
func (b *Backend) Read(tensor.Buffer) ([]float32, error)        { return nil, errUnavailable }
func (b *Backend) Write(tensor.Buffer, []float32) error         { return errUnavailable }
func (b *Backend) Synchronize() error                           { return errUnavailable }
