//go:build windows

package webgpu

import (
	"fmt"

	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name, code string) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	shader := b.compileShader(name, code)
	// Auto layout (nil layout)
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// kernel describes one shader dispatch.
type kernel struct {
	name    string
	code    string
	buffers []*Buffer // bound in order to bindings 0..len-1; params follow
	n       int       // element count written to params.size
	scalar  float32
	groups  uint32 // workgroup count; 0 means ceil(n / workgroupSize)
}

// dispatch records the kernel into a command buffer and queues it.
func (b *Backend) dispatch(k kernel) error {
	groups := k.groups
	if groups == 0 {
		if k.n == 0 {
			return nil
		}
		groups = groupsFor(k.n)
	}
	x, y, stride := grid(groups)

	pipeline := b.getOrCreatePipeline(k.name, k.code)
	params := b.createParams(k.n, k.scalar, stride)

	entries := make([]wgpu.BindGroupEntry, 0, len(k.buffers)+1)
	for i, buf := range k.buffers {
		//nolint:gosec // G115: binding index is small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf.handle(), 0, buf.size))
	}
	//nolint:gosec // G115: binding index is small
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(k.buffers)), params, 0, paramsSize))

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(x, y, 1)
	computePass.End()

	b.queueCommand(encoder.Finish(nil), bindGroup, params)
	return nil
}

// operands unwraps accelerator buffers that must all have the same length.
func operands(op string, bufs ...tensor.Buffer) ([]*Buffer, error) {
	out := make([]*Buffer, len(bufs))
	for i, buf := range bufs {
		d, err := deviceBuffer(op, buf)
		if err != nil {
			return nil, err
		}
		if i > 0 && d.n != out[0].n {
			return nil, fmt.Errorf("webgpu: %s: %d vs %d elements: %w", op, out[0].n, d.n, tensor.ErrShapeMismatch)
		}
		out[i] = d
	}
	return out, nil
}

// binary runs an element-wise dst = f(a, b) shader.
func (b *Backend) binary(op, code string, dst, x, y tensor.Buffer, scalar float32) (err error) {
	defer recoverInto(op, &err)
	ops, err := operands(op, dst, x, y)
	if err != nil {
		return err
	}
	return b.dispatch(kernel{
		name:    op,
		code:    code,
		buffers: []*Buffer{ops[1], ops[2], ops[0]},
		n:       ops[0].n,
		scalar:  scalar,
	})
}

// unary runs an element-wise dst = f(x) shader.
func (b *Backend) unary(op, code string, dst, x tensor.Buffer, scalar float32) (err error) {
	defer recoverInto(op, &err)
	ops, err := operands(op, dst, x)
	if err != nil {
		return err
	}
	return b.dispatch(kernel{
		name:    op,
		code:    code,
		buffers: []*Buffer{ops[1], ops[0]},
		n:       ops[0].n,
		scalar:  scalar,
	})
}

// Add computes dst = a + b.
func (b *Backend) Add(dst, x, y tensor.Buffer) error {
	return b.binary("add", addShader, dst, x, y, 0)
}

// Sub computes dst = a - b.
func (b *Backend) Sub(dst, x, y tensor.Buffer) error {
	return b.binary("sub", subShader, dst, x, y, 0)
}

// Mul computes dst = a * b element-wise.
func (b *Backend) Mul(dst, x, y tensor.Buffer) error {
	return b.binary("mul", mulShader, dst, x, y, 0)
}

// Div computes dst = a / b element-wise.
func (b *Backend) Div(dst, x, y tensor.Buffer) error {
	return b.binary("div", divShader, dst, x, y, 0)
}

// Equal writes 1 where |a-b| < eps and 0 elsewhere.
func (b *Backend) Equal(dst, x, y tensor.Buffer, eps float32) error {
	return b.binary("equal", equalShader, dst, x, y, eps)
}

// Square computes dst = x * x.
func (b *Backend) Square(dst, x tensor.Buffer) error {
	return b.unary("square", squareShader, dst, x, 0)
}

// Scale computes dst = s * x.
func (b *Backend) Scale(dst, x tensor.Buffer, s float32) error {
	return b.unary("scale", scaleShader, dst, x, s)
}

// AddScaled computes dst += alpha * x.
func (b *Backend) AddScaled(dst tensor.Buffer, alpha float32, x tensor.Buffer) error {
	return b.unary("add_scaled", addScaledShader, dst, x, alpha)
}

// Fill sets every element of dst to value.
func (b *Backend) Fill(dst tensor.Buffer, value float32) (err error) {
	defer recoverInto("fill", &err)
	d, err := deviceBuffer("fill", dst)
	if err != nil {
		return err
	}
	return b.dispatch(kernel{
		name:    "fill",
		code:    fillShader,
		buffers: []*Buffer{d},
		n:       d.n,
		scalar:  value,
	})
}

// Sum writes the sum of all elements of x into the single element of dst.
func (b *Backend) Sum(dst, x tensor.Buffer) (err error) {
	defer recoverInto("sum", &err)
	d, err := deviceBuffer("sum", dst)
	if err != nil {
		return err
	}
	s, err := deviceBuffer("sum", x)
	if err != nil {
		return err
	}
	if d.n != 1 {
		return fmt.Errorf("webgpu: sum: destination has %d elements, want 1: %w", d.n, tensor.ErrShapeMismatch)
	}
	return b.dispatch(kernel{
		name:    "sum",
		code:    sumShader,
		buffers: []*Buffer{s, d},
		n:       s.n,
		groups:  1,
	})
}

// Broadcast sets every element of dst to the single element of src.
func (b *Backend) Broadcast(dst, src tensor.Buffer) (err error) {
	defer recoverInto("broadcast", &err)
	d, err := deviceBuffer("broadcast", dst)
	if err != nil {
		return err
	}
	s, err := deviceBuffer("broadcast", src)
	if err != nil {
		return err
	}
	if s.n != 1 {
		return fmt.Errorf("webgpu: broadcast: source has %d elements, want 1: %w", s.n, tensor.ErrShapeMismatch)
	}
	return b.dispatch(kernel{
		name:    "broadcast",
		code:    broadcastShader,
		buffers: []*Buffer{s, d},
		n:       d.n,
	})
}
