//go:build windows

// Package webgpu implements the accelerator backend on WebGPU compute shaders.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// Kernel launches are recorded into command buffers and submitted in batches;
// Read and Synchronize flush the batch and wait for the device.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/rs/zerolog/log"
)

// Config configures the accelerator backend.
type Config struct {
	// MaxBatchSize is the number of queued command buffers that triggers a submit.
	// Zero means submit only on Read or Synchronize.
	MaxBatchSize int
}

// DefaultConfig returns the default accelerator configuration.
func DefaultConfig() Config {
	return Config{MaxBatchSize: 64}
}

// Backend implements tensor.Backend on a WebGPU device.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfoGo
	pool        *bufferPool

	// fence is read back to wait for all submitted work.
	fence *wgpu.Buffer

	// Command batching. Transient resources used by queued commands are released
	// once the device has finished with them.
	pendingCommands []*wgpu.CommandBuffer
	transients      []releaser
	pendingMu       sync.Mutex
	maxBatchSize    int
}

// releaser is any WebGPU object with a Release method.
type releaser interface {
	Release()
}

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates an accelerator backend with the default configuration.
func New() (*Backend, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an accelerator backend.
// Returns tensor.ErrUnsupportedDevice if WebGPU is not available or initialization fails.
func NewWithConfig(cfg Config) (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v: %w", r, tensor.ErrUnsupportedDevice)
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: create instance: %v: %w", err, tensor.ErrUnsupportedDevice)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %v: %w", adapterErr, tensor.ErrUnsupportedDevice)
	}

	adapterInfo, infoErr := adapter.GetInfo()
	if infoErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: adapter info: %v: %w", infoErr, tensor.ErrUnsupportedDevice)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %v: %w", deviceErr, tensor.ErrUnsupportedDevice)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: no queue: %w", tensor.ErrUnsupportedDevice)
	}

	b := &Backend{
		instance:     instance,
		adapter:      adapter,
		device:       device,
		queue:        queue,
		shaders:      make(map[string]*wgpu.ShaderModule),
		pipelines:    make(map[string]*wgpu.ComputePipeline),
		adapterInfo:  adapterInfo,
		pool:         newBufferPool(device),
		maxBatchSize: cfg.MaxBatchSize,
	}
	b.fence = device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: storageUsage,
		Size:  bytesPerElement,
	})

	log.Debug().Str("adapter", b.Name()).Msg("webgpu backend initialized")
	return b, nil
}

// Release flushes pending work and releases all WebGPU resources.
func (b *Backend) Release() {
	if err := b.Synchronize(); err != nil {
		log.Debug().Err(err).Msg("webgpu release: synchronize failed")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pool != nil {
		b.pool.clear()
		b.pool = nil
	}
	if b.fence != nil {
		b.fence.Release()
		b.fence = nil
	}
	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", b.adapterInfo.Device, b.adapterInfo.Vendor)
	}
	return "WebGPU"
}

// Device returns tensor.Accelerator.
func (b *Backend) Device() tensor.Device {
	return tensor.Accelerator
}

// PoolStats returns buffer pool hits, misses and the number of idle pooled buffers.
func (b *Backend) PoolStats() (hits, misses uint64, idle int) {
	return b.pool.stats()
}

// queueCommand adds a command buffer to the pending batch, and the transient
// objects it uses to the release list.
func (b *Backend) queueCommand(cmd *wgpu.CommandBuffer, transients ...releaser) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	b.pendingCommands = append(b.pendingCommands, cmd)
	b.transients = append(b.transients, transients...)

	if b.maxBatchSize > 0 && len(b.pendingCommands) >= b.maxBatchSize {
		b.flushCommandsLocked()
	}
}

// flushCommandsLocked submits all pending command buffers (must hold pendingMu).
func (b *Backend) flushCommandsLocked() {
	if len(b.pendingCommands) == 0 {
		return
	}
	b.queue.Submit(b.pendingCommands...)
	b.pendingCommands = b.pendingCommands[:0]
}

// Synchronize submits pending commands and blocks until the device is idle.
func (b *Backend) Synchronize() (err error) {
	defer recoverInto("synchronize", &err)

	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	b.flushCommandsLocked()
	if _, err := b.readBuffer(b.fence, bytesPerElement); err != nil {
		return fmt.Errorf("webgpu: synchronize: %w", err)
	}
	for _, r := range b.transients {
		r.Release()
	}
	b.transients = b.transients[:0]
	return nil
}

var (
	availableOnce sync.Once
	available     bool
)

// IsAvailable reports whether a WebGPU adapter can be obtained.
// The probe runs once per process and never fails.
func IsAvailable() bool {
	availableOnce.Do(func() {
		available = probe()
		log.Debug().Bool("available", available).Msg("webgpu probe")
	})
	return available
}

func probe() (ok bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// recoverInto converts a panic from the native bindings into an error.
func recoverInto(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("webgpu: %s: %v", op, r)
	}
}
