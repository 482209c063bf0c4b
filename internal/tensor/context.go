package tensor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Config configures a Context.
type Config struct {
	Seed          uint64 // Seed for the Rand generator.
	DefaultDevice Device // Device used by factories when OnDevice is not given.
}

// DefaultConfig returns the default context configuration.
func DefaultConfig() Config {
	return Config{
		Seed:          DefaultSeed,
		DefaultDevice: Host,
	}
}

// Context owns the per-device backend registry and the random generator used by
// the tensor factories. Device selection happens once, when a tensor is created;
// a device without a registered backend is rejected rather than run on the host.
type Context struct {
	mu            sync.RWMutex
	backends      map[Device]Backend
	gen           *Generator
	defaultDevice Device
}

// NewContext creates a context with the given backends registered.
func NewContext(cfg Config, backends ...Backend) *Context {
	c := &Context{
		backends:      make(map[Device]Backend, len(backends)),
		gen:           NewGenerator(cfg.Seed),
		defaultDevice: cfg.DefaultDevice,
	}
	for _, b := range backends {
		c.Register(b)
	}
	return c
}

// Register adds b as the backend for its device, replacing any previous one.
func (c *Context) Register(b Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backends[b.Device()] = b
	log.Debug().Str("backend", b.Name()).Stringer("device", b.Device()).Msg("registered backend")
}

// Backend returns the backend for device d.
func (c *Context) Backend(d Device) (Backend, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.backends[d]
	if !ok {
		return nil, fmt.Errorf("no backend for %s: %w", d, ErrUnsupportedDevice)
	}
	return b, nil
}

// Devices returns the devices with a registered backend, in ascending order.
func (c *Context) Devices() []Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	devices := make([]Device, 0, len(c.backends))
	for d := range c.backends {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i] < devices[j] })
	return devices
}

// Generator returns the context's random generator.
func (c *Context) Generator() *Generator {
	return c.gen
}

// Option configures a tensor created by a Context factory.
type Option func(*creationOptions)

type creationOptions struct {
	device       Device
	requiresGrad bool
}

// OnDevice places the new tensor on d.
func OnDevice(d Device) Option {
	return func(o *creationOptions) {
		o.device = d
	}
}

// RequiresGrad enables or disables gradient tracking for the new tensor.
func RequiresGrad(v bool) Option {
	return func(o *creationOptions) {
		o.requiresGrad = v
	}
}

func (c *Context) resolve(opts []Option) creationOptions {
	o := creationOptions{device: c.defaultDevice}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
