//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPooledPerSize caps how many idle buffers of one byte size are kept.
const maxPooledPerSize = 32

// storageUsage is the usage every tensor buffer is created with.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// bufferPool recycles storage buffers by exact byte size.
// Autograd allocates and frees many same-shaped gradient buffers per step,
// so exact-size reuse hits often.
type bufferPool struct {
	device *wgpu.Device

	idle map[uint64][]*wgpu.Buffer
	mu   sync.Mutex

	// Statistics
	hits   uint64
	misses uint64
}

func newBufferPool(device *wgpu.Device) *bufferPool {
	return &bufferPool{
		device: device,
		idle:   make(map[uint64][]*wgpu.Buffer),
	}
}

// acquire returns an idle buffer of size bytes or creates a new one.
func (p *bufferPool) acquire(size uint64) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if free := p.idle[size]; len(free) > 0 {
		buf := free[len(free)-1]
		p.idle[size] = free[:len(free)-1]
		p.hits++
		return buf
	}

	p.misses++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: storageUsage,
		Size:  size,
	})
}

// release returns buf to the pool, or releases it when the pool for its size is full.
func (p *bufferPool) release(buf *wgpu.Buffer, size uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.idle[size]) >= maxPooledPerSize {
		buf.Release()
		return
	}
	p.idle[size] = append(p.idle[size], buf)
}

// clear releases every idle buffer.
func (p *bufferPool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for size, bufs := range p.idle {
		for _, buf := range bufs {
			buf.Release()
		}
		delete(p.idle, size)
	}
}

// stats returns pool hits, misses and the number of idle buffers.
func (p *bufferPool) stats() (hits, misses uint64, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, bufs := range p.idle {
		idle += len(bufs)
	}
	return p.hits, p.misses, idle
}
