//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// bytesPerElement is the size of one float32 element.
const bytesPerElement = 4

// Buffer is a float32 storage buffer in device memory.
type Buffer struct {
	mu   sync.Mutex
	gpu  *wgpu.Buffer
	n    int
	size uint64 // bytes; at least one element so empty buffers stay bindable
}

// Len returns the number of elements.
func (buf *Buffer) Len() int {
	return buf.n
}

// Device returns tensor.Accelerator.
func (buf *Buffer) Device() tensor.Device {
	return tensor.Accelerator
}

func (buf *Buffer) handle() *wgpu.Buffer {
	buf.mu.Lock()
	defer buf.mu.Unlock()
	return buf.gpu
}

// Allocate reserves an uninitialized buffer of n elements, reusing pooled memory when possible.
func (b *Backend) Allocate(n int) (_ tensor.Buffer, err error) {
	if n < 0 {
		tensor.TrackAllocFailure(tensor.Accelerator)
		return nil, fmt.Errorf("webgpu: allocate %d elements: %w", n, tensor.ErrOutOfMemory)
	}
	defer func() {
		if r := recover(); r != nil {
			tensor.TrackAllocFailure(tensor.Accelerator)
			err = fmt.Errorf("webgpu: allocate %d elements: %v: %w", n, r, tensor.ErrOutOfMemory)
		}
	}()

	size := uint64(max(n, 1)) * bytesPerElement
	gpu := b.pool.acquire(size)
	tensor.TrackAlloc(tensor.Accelerator, n)
	return &Buffer{gpu: gpu, n: n, size: size}, nil
}

// Free returns buf to the pool once queued work has been submitted.
// Freeing a buffer twice or a foreign buffer is a no-op.
func (b *Backend) Free(buf tensor.Buffer) {
	d, ok := buf.(*Buffer)
	if !ok || d == nil {
		return
	}
	d.mu.Lock()
	gpu := d.gpu
	d.gpu = nil
	d.mu.Unlock()
	if gpu == nil {
		return
	}

	b.pendingMu.Lock()
	b.flushCommandsLocked()
	b.pendingMu.Unlock()

	b.pool.release(gpu, d.size)
	tensor.TrackFree(tensor.Accelerator, d.n)
}

// Read copies src to host memory, waiting for all queued kernels first.
func (b *Backend) Read(src tensor.Buffer) (out []float32, err error) {
	defer recoverInto("read", &err)

	s, err := deviceBuffer("read", src)
	if err != nil {
		return nil, err
	}
	if err := b.Synchronize(); err != nil {
		return nil, err
	}
	if s.n == 0 {
		return []float32{}, nil
	}
	raw, err := b.readBuffer(s.handle(), uint64(s.n)*bytesPerElement)
	if err != nil {
		return nil, fmt.Errorf("webgpu: read: %w", err)
	}
	out = make([]float32, s.n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// Write uploads data into dst through a mapped staging buffer.
func (b *Backend) Write(dst tensor.Buffer, data []float32) (err error) {
	defer recoverInto("write", &err)

	d, err := deviceBuffer("write", dst)
	if err != nil {
		return err
	}
	if d.n != len(data) {
		return fmt.Errorf("webgpu: write: %d values into %d elements: %w", len(data), d.n, tensor.ErrShapeMismatch)
	}
	if len(data) == 0 {
		return nil
	}

	raw := make([]byte, len(data)*bytesPerElement)
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	size := uint64(len(raw))
	staging := b.createBuffer(raw, wgpu.BufferUsageCopySrc)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, d.handle(), 0, size)
	b.queueCommand(encoder.Finish(nil), staging)
	return nil
}

// createBuffer creates a GPU buffer initialized with data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createParams packs the kernel uniform: element count, one scalar operand and
// the dispatch row stride.
func (b *Backend) createParams(n int, scalar float32, stride uint32) *wgpu.Buffer {
	params := make([]byte, paramsSize)
	//nolint:gosec // G115: n is a non-negative element count
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(scalar))
	binary.LittleEndian.PutUint32(params[8:12], stride)
	return b.createBuffer(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	stagingBuffer.Unmap()

	return result, nil
}

// deviceBuffer unwraps an accelerator buffer.
func deviceBuffer(op string, buf tensor.Buffer) (*Buffer, error) {
	d, ok := buf.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("webgpu: %s: buffer on %s: %w", op, buf.Device(), tensor.ErrDeviceMismatch)
	}
	if d == nil || d.handle() == nil {
		return nil, fmt.Errorf("webgpu: %s: %w", op, tensor.ErrReleased)
	}
	return d, nil
}
