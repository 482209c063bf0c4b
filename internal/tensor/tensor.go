package tensor

import (
	"fmt"
	"runtime"
)

// Tensor is a float32 array with a shape, a device-bound backend and optional
// autograd linkage.
//
// Leaf tensors come from the Context factories (Zeros, Ones, Rand, ...).
// Tensors produced by differentiable functions carry the graph node that made
// them when at least one input requires gradients.
//
// Example:
//
//	ctx := tensor.NewContext(tensor.DefaultConfig(), cpu.New())
//	x, _ := ctx.Ones(tensor.Shape{2, 2}, tensor.RequiresGrad(true))
//	sq, _ := autodiff.Square(x)
//	y, _ := autodiff.Sum(sq)
//	_ = autodiff.Backward(y)
//	grad, _ := x.GradData() // [2 2 2 2]
type Tensor struct {
	shape        Shape
	backend      Backend
	res          *resources
	requiresGrad bool
	node         Operation // nil for leaves
}

// newTensor builds a tensor around st. A tensor that does not require gradients
// never carries a node.
func newTensor(b Backend, shape Shape, st *storage, requiresGrad bool, node Operation) *Tensor {
	if !requiresGrad {
		node = nil
	}
	t := &Tensor{
		shape:        shape.Clone(),
		backend:      b,
		res:          &resources{data: st},
		requiresGrad: requiresGrad,
		node:         node,
	}
	runtime.AddCleanup(t, func(r *resources) { r.release() }, t.res)
	return t
}

// FromBuffer wraps buf, which must have been allocated on b, in a new tensor.
// The tensor takes ownership of buf. node is ignored unless requiresGrad is true.
//
// Used by differentiable functions to publish their outputs.
func FromBuffer(b Backend, shape Shape, buf Buffer, requiresGrad bool, node Operation) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("from buffer: %v: %w", err, ErrShapeMismatch)
	}
	if buf.Len() != shape.NumElements() {
		return nil, fmt.Errorf("from buffer: shape %v needs %d elements, buffer has %d: %w",
			shape, shape.NumElements(), buf.Len(), ErrShapeMismatch)
	}
	if buf.Device() != b.Device() {
		return nil, fmt.Errorf("from buffer: buffer on %s, backend on %s: %w", buf.Device(), b.Device(), ErrDeviceMismatch)
	}
	return newTensor(b, shape, newStorage(b, buf), requiresGrad, node), nil
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape.Clone()
}

// Device returns the tensor's compute device.
func (t *Tensor) Device() Device {
	return t.backend.Device()
}

// Backend returns the backend that owns the tensor's buffers.
func (t *Tensor) Backend() Backend {
	return t.backend
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// RequiresGrad returns true if gradients are tracked for this tensor.
func (t *Tensor) RequiresGrad() bool {
	return t.requiresGrad
}

// Node returns the graph node that produced this tensor, or nil for leaves.
func (t *Tensor) Node() Operation {
	return t.node
}

// IsLeaf reports whether the tensor was created directly rather than by an operation.
func (t *Tensor) IsLeaf() bool {
	return t.node == nil
}

// Buffer returns the tensor's data buffer.
func (t *Tensor) Buffer() (Buffer, error) {
	t.res.mu.Lock()
	released := t.res.released
	t.res.mu.Unlock()
	if released {
		return nil, ErrReleased
	}
	buf := t.res.data.buffer()
	if buf == nil {
		return nil, ErrReleased
	}
	return buf, nil
}

// GradBuffer returns the gradient buffer, or nil if no gradient has been accumulated.
func (t *Tensor) GradBuffer() Buffer {
	t.res.mu.Lock()
	defer t.res.mu.Unlock()
	return t.res.grad
}

// HasGrad reports whether a gradient buffer is present.
func (t *Tensor) HasGrad() bool {
	return t.GradBuffer() != nil
}

// Data copies the tensor's values to host memory.
// This is a synchronization point for accelerator tensors.
func (t *Tensor) Data() ([]float32, error) {
	buf, err := t.Buffer()
	if err != nil {
		return nil, err
	}
	data, err := t.backend.Read(buf)
	runtime.KeepAlive(t)
	return data, err
}

// Item returns the value of a single-element tensor.
func (t *Tensor) Item() (float32, error) {
	if !t.shape.IsScalar() {
		return 0, fmt.Errorf("item: shape %v: %w", t.shape, ErrNotScalar)
	}
	data, err := t.Data()
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// GradData copies the accumulated gradient to host memory.
// Returns ErrMissingGradient if no gradient has been accumulated.
func (t *Tensor) GradData() ([]float32, error) {
	grad := t.GradBuffer()
	if grad == nil {
		return nil, fmt.Errorf("grad data: %w", ErrMissingGradient)
	}
	data, err := t.backend.Read(grad)
	runtime.KeepAlive(t)
	return data, err
}

// SetGrad overwrites the gradient with values, allocating it if needed.
// Tensors that do not require gradients never hold one; for them SetGrad
// returns ErrMissingGradient.
func (t *Tensor) SetGrad(values []float32) error {
	if !t.requiresGrad {
		return fmt.Errorf("set grad: tensor does not require gradients: %w", ErrMissingGradient)
	}
	if len(values) != t.NumElements() {
		return fmt.Errorf("set grad: got %d values for shape %v: %w", len(values), t.shape, ErrShapeMismatch)
	}
	grad, err := t.ensureGrad()
	if err != nil {
		return fmt.Errorf("set grad: %w", err)
	}
	err = t.backend.Write(grad, values)
	runtime.KeepAlive(t)
	return err
}

// ZeroGrad fills an existing gradient with zeros. Tensors without a gradient are left as is.
func (t *Tensor) ZeroGrad() error {
	grad := t.GradBuffer()
	if grad == nil {
		return nil
	}
	err := t.backend.Fill(grad, 0)
	runtime.KeepAlive(t)
	return err
}

// AccumulateGrad adds g into the tensor's gradient, allocating a zero gradient on first use.
// Tensors that do not require gradients ignore the call.
func (t *Tensor) AccumulateGrad(g Buffer) error {
	if !t.requiresGrad {
		return nil
	}
	if g.Device() != t.Device() {
		return fmt.Errorf("accumulate grad: gradient on %s, tensor on %s: %w", g.Device(), t.Device(), ErrDeviceMismatch)
	}
	if g.Len() != t.NumElements() {
		return fmt.Errorf("accumulate grad: gradient has %d elements, shape %v: %w", g.Len(), t.shape, ErrShapeMismatch)
	}
	grad, err := t.ensureGrad()
	if err != nil {
		return fmt.Errorf("accumulate grad: %w", err)
	}
	err = t.backend.AddScaled(grad, 1, g)
	runtime.KeepAlive(t)
	return err
}

// ensureGrad returns the gradient buffer, allocating a zeroed one if absent.
func (t *Tensor) ensureGrad() (Buffer, error) {
	t.res.mu.Lock()
	defer t.res.mu.Unlock()
	if t.res.released {
		return nil, ErrReleased
	}
	if t.res.grad != nil {
		return t.res.grad, nil
	}
	grad, err := t.backend.Allocate(t.NumElements())
	if err != nil {
		return nil, err
	}
	if err := t.backend.Fill(grad, 0); err != nil {
		t.backend.Free(grad)
		return nil, err
	}
	t.res.grad = grad
	return grad, nil
}

// Detach returns a tensor that shares this tensor's data but is cut from the graph.
// The returned tensor does not require gradients and has no gradient of its own.
func (t *Tensor) Detach() *Tensor {
	t.res.data.addRef()
	return newTensor(t.backend, t.shape, t.res.data, false, nil)
}

// Release frees the tensor's gradient and drops its reference on the data buffer.
// It is safe to call more than once. Tensors still referenced by a graph node
// must not be released before the graph is done with them.
func (t *Tensor) Release() {
	t.res.release()
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	op := "leaf"
	if t.node != nil {
		op = t.node.Kind().String()
	}
	return fmt.Sprintf("Tensor%v on %s (requires_grad=%t, op=%s)", t.shape, t.Device(), t.requiresGrad, op)
}
