// Package cpu implements the host backend: float32 buffers in Go memory with
// BLAS level-1 kernels from gonum and chunked parallel element-wise loops.
package cpu

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/gradcore/internal/parallel"
	"github.com/born-ml/gradcore/internal/tensor"
)

// bytesPerElement is the size of one float32 element.
const bytesPerElement = 4

// Config configures the host backend.
type Config struct {
	// MemoryLimit caps the bytes held by live buffers. Zero means unlimited.
	MemoryLimit int64
	// Parallel controls how element-wise kernels are split across goroutines.
	Parallel parallel.Config
}

// DefaultConfig returns the default host backend configuration.
func DefaultConfig() Config {
	return Config{
		MemoryLimit: 0,
		Parallel:    parallel.DefaultConfig(),
	}
}

// CPUBackend implements tensor.Backend on the host.
type CPUBackend struct {
	cfg  Config
	used atomic.Int64
}

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a host backend with the default configuration.
func New() *CPUBackend {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a host backend with cfg.
func NewWithConfig(cfg Config) *CPUBackend {
	return &CPUBackend{cfg: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return tensor.Host
}

// MemoryInUse returns the bytes currently held by live buffers.
func (cpu *CPUBackend) MemoryInUse() int64 {
	return cpu.used.Load()
}

// Buffer is a host-resident float32 array.
type Buffer struct {
	data []float32
}

// Len returns the number of elements.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Device returns tensor.Host.
func (b *Buffer) Device() tensor.Device {
	return tensor.Host
}

// Allocate reserves a zeroed buffer of n elements.
// Returns tensor.ErrOutOfMemory if n is negative or the memory limit would be exceeded.
func (cpu *CPUBackend) Allocate(n int) (tensor.Buffer, error) {
	if n < 0 {
		tensor.TrackAllocFailure(tensor.Host)
		return nil, fmt.Errorf("cpu: allocate %d elements: %w", n, tensor.ErrOutOfMemory)
	}
	size := int64(n) * bytesPerElement
	if limit := cpu.cfg.MemoryLimit; limit > 0 {
		if cpu.used.Add(size) > limit {
			cpu.used.Add(-size)
			tensor.TrackAllocFailure(tensor.Host)
			return nil, fmt.Errorf("cpu: allocate %d bytes with %d of %d in use: %w",
				size, cpu.used.Load(), limit, tensor.ErrOutOfMemory)
		}
	} else {
		cpu.used.Add(size)
	}
	tensor.TrackAlloc(tensor.Host, n)
	return &Buffer{data: make([]float32, n)}, nil
}

// Free releases buf. Freeing a buffer twice or a foreign buffer is a no-op.
func (cpu *CPUBackend) Free(buf tensor.Buffer) {
	b, ok := buf.(*Buffer)
	if !ok || b.data == nil {
		return
	}
	n := len(b.data)
	b.data = nil
	cpu.used.Add(-int64(n) * bytesPerElement)
	tensor.TrackFree(tensor.Host, n)
}

// Synchronize is a no-op: host kernels complete before returning.
func (cpu *CPUBackend) Synchronize() error {
	return nil
}

// Read copies buf into a new slice.
func (cpu *CPUBackend) Read(src tensor.Buffer) ([]float32, error) {
	s, err := hostData("read", src)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(s))
	copy(out, s)
	return out, nil
}

// Write copies data into dst.
func (cpu *CPUBackend) Write(dst tensor.Buffer, data []float32) error {
	d, err := hostData("write", dst)
	if err != nil {
		return err
	}
	if len(d) != len(data) {
		return fmt.Errorf("cpu: write: %d values into %d elements: %w", len(data), len(d), tensor.ErrShapeMismatch)
	}
	copy(d, data)
	return nil
}

// hostData unwraps a host buffer.
func hostData(op string, buf tensor.Buffer) ([]float32, error) {
	b, ok := buf.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("cpu: %s: buffer on %s: %w", op, buf.Device(), tensor.ErrDeviceMismatch)
	}
	if b == nil || b.data == nil {
		return nil, fmt.Errorf("cpu: %s: %w", op, tensor.ErrReleased)
	}
	return b.data, nil
}

// operands unwraps buffers that must all have the same length.
func operands(op string, bufs ...tensor.Buffer) ([][]float32, error) {
	out := make([][]float32, len(bufs))
	for i, buf := range bufs {
		d, err := hostData(op, buf)
		if err != nil {
			return nil, err
		}
		if i > 0 && len(d) != len(out[0]) {
			return nil, fmt.Errorf("cpu: %s: %d vs %d elements: %w", op, len(out[0]), len(d), tensor.ErrShapeMismatch)
		}
		out[i] = d
	}
	return out, nil
}
