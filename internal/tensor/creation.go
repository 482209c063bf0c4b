package tensor

import "fmt"

// Zeros creates a leaf tensor filled with zeros.
//
// Example:
//
//	t, err := ctx.Zeros(tensor.Shape{3, 4}, tensor.OnDevice(tensor.Accelerator))
func (c *Context) Zeros(shape Shape, opts ...Option) (*Tensor, error) {
	return c.Full(shape, 0, opts...)
}

// Ones creates a leaf tensor filled with ones.
//
// Example:
//
//	x, err := ctx.Ones(tensor.Shape{2, 2}, tensor.RequiresGrad(true))
func (c *Context) Ones(shape Shape, opts ...Option) (*Tensor, error) {
	return c.Full(shape, 1, opts...)
}

// Full creates a leaf tensor filled with value.
func (c *Context) Full(shape Shape, value float32, opts ...Option) (*Tensor, error) {
	o := c.resolve(opts)
	b, buf, err := c.allocate("full", shape, o)
	if err != nil {
		return nil, err
	}
	if err := b.Fill(buf, value); err != nil {
		b.Free(buf)
		return nil, fmt.Errorf("full: %w", err)
	}
	return newTensor(b, shape, newStorage(b, buf), o.requiresGrad, nil), nil
}

// Rand creates a leaf tensor with independent samples uniformly distributed in [0, 1).
// Each call advances the context's Generator. Samples are drawn on the host and
// copied to the target device.
func (c *Context) Rand(shape Shape, opts ...Option) (*Tensor, error) {
	o := c.resolve(opts)
	b, buf, err := c.allocate("rand", shape, o)
	if err != nil {
		return nil, err
	}
	values := make([]float32, shape.NumElements())
	c.gen.Fill(values)
	if err := b.Write(buf, values); err != nil {
		b.Free(buf)
		return nil, fmt.Errorf("rand: %w", err)
	}
	return newTensor(b, shape, newStorage(b, buf), o.requiresGrad, nil), nil
}

// FromSlice creates a leaf tensor from a Go slice.
// The slice is copied into the tensor's memory.
func (c *Context) FromSlice(data []float32, shape Shape, opts ...Option) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("from slice: shape %v requires %d elements, but got %d: %w",
			shape, shape.NumElements(), len(data), ErrShapeMismatch)
	}
	o := c.resolve(opts)
	b, buf, err := c.allocate("from slice", shape, o)
	if err != nil {
		return nil, err
	}
	if err := b.Write(buf, data); err != nil {
		b.Free(buf)
		return nil, fmt.Errorf("from slice: %w", err)
	}
	return newTensor(b, shape, newStorage(b, buf), o.requiresGrad, nil), nil
}

// allocate validates shape and reserves a buffer on the requested device.
func (c *Context) allocate(op string, shape Shape, o creationOptions) (Backend, Buffer, error) {
	if err := shape.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %v: %w", op, err, ErrShapeMismatch)
	}
	b, err := c.Backend(o.device)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	buf, err := b.Allocate(shape.NumElements())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, buf, nil
}
