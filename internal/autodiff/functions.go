// Package autodiff implements the differentiable tensor functions and the
// reverse-mode backward engine.
//
// Every function runs its forward kernel on the operands' backend. When at
// least one operand requires gradients, the output records a graph node
// (see package ops) linking it to those operands; Backward later walks these
// nodes from a scalar root and accumulates gradients into the leaves.
//
// Usage:
//
//	ctx := tensor.NewContext(tensor.DefaultConfig(), cpu.New())
//	x, _ := ctx.FromSlice([]float32{2}, tensor.Shape{1}, tensor.RequiresGrad(true))
//	y, _ := autodiff.Square(x) // y = x²
//	_ = autodiff.Backward(y)
//	grad, _ := x.GradData() // dy/dx = 2x = [4]
package autodiff

import (
	"fmt"
	"runtime"

	"github.com/born-ml/gradcore/internal/autodiff/ops"
	"github.com/born-ml/gradcore/internal/tensor"
)

// Square returns x * x element-wise.
func Square(x *tensor.Tensor) (*tensor.Tensor, error) {
	return unary("square", x, x.Shape(),
		func(b tensor.Backend, dst, src tensor.Buffer) error { return b.Square(dst, src) },
		func() tensor.Operation { return ops.NewSquareOp(x) })
}

// Sum returns the sum of all elements of x as a scalar tensor.
func Sum(x *tensor.Tensor) (*tensor.Tensor, error) {
	return unary("sum", x, tensor.Shape{},
		func(b tensor.Backend, dst, src tensor.Buffer) error { return b.Sum(dst, src) },
		func() tensor.Operation { return ops.NewSumOp(x) })
}

// Scale returns s * x.
func Scale(x *tensor.Tensor, s float32) (*tensor.Tensor, error) {
	return unary("scale", x, x.Shape(),
		func(b tensor.Backend, dst, src tensor.Buffer) error { return b.Scale(dst, src, s) },
		func() tensor.Operation { return ops.NewScaleOp(x, s) })
}

// Add returns a + b element-wise. Shapes must match exactly.
func Add(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return binary("add", a, b, tensor.Backend.Add,
		func() tensor.Operation { return ops.NewAddOp(a, b) })
}

// Sub returns a - b element-wise.
func Sub(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return binary("sub", a, b, tensor.Backend.Sub,
		func() tensor.Operation { return ops.NewSubOp(a, b) })
}

// Mul returns a * b element-wise.
func Mul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return binary("mul", a, b, tensor.Backend.Mul,
		func() tensor.Operation { return ops.NewMulOp(a, b) })
}

// Div returns a / b element-wise. Division by zero follows IEEE 754.
func Div(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return binary("div", a, b, tensor.Backend.Div,
		func() tensor.Operation { return ops.NewDivOp(a, b) })
}

// Equal returns 1 where |a-b| < eps and 0 elsewhere.
// The result never requires gradients.
func Equal(a, b *tensor.Tensor, eps float32) (*tensor.Tensor, error) {
	kernel := func(be tensor.Backend, dst, x, y tensor.Buffer) error { return be.Equal(dst, x, y, eps) }
	return binary("equal", a, b, kernel, nil)
}

// unary runs kernel from x into a new buffer of outShape and wraps the result.
// newNode is only called when x requires gradients.
func unary(
	op string,
	x *tensor.Tensor,
	outShape tensor.Shape,
	kernel func(b tensor.Backend, dst, src tensor.Buffer) error,
	newNode func() tensor.Operation,
) (*tensor.Tensor, error) {
	src, err := x.Buffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := run(op, x.Backend(), outShape, x.RequiresGrad(), newNode, func(b tensor.Backend, dst tensor.Buffer) error {
		return kernel(b, dst, src)
	})
	runtime.KeepAlive(x)
	return out, err
}

// binary checks that a and b are compatible, runs kernel and wraps the result.
// A nil newNode marks the function as non-differentiable.
func binary(
	op string,
	a, b *tensor.Tensor,
	kernel func(be tensor.Backend, dst, x, y tensor.Buffer) error,
	newNode func() tensor.Operation,
) (*tensor.Tensor, error) {
	if a.Device() != b.Device() {
		return nil, fmt.Errorf("%s: %s vs %s: %w", op, a.Device(), b.Device(), tensor.ErrDeviceMismatch)
	}
	if !a.Shape().Equal(b.Shape()) {
		return nil, fmt.Errorf("%s: %v vs %v: %w", op, a.Shape(), b.Shape(), tensor.ErrShapeMismatch)
	}
	x, err := a.Buffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	y, err := b.Buffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	requiresGrad := newNode != nil && (a.RequiresGrad() || b.RequiresGrad())
	out, err := run(op, a.Backend(), a.Shape(), requiresGrad, newNode, func(be tensor.Backend, dst tensor.Buffer) error {
		return kernel(be, dst, x, y)
	})
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
	return out, err
}

// run allocates the output, executes kernel and publishes the tensor.
// The output buffer is freed if any step fails.
func run(
	op string,
	b tensor.Backend,
	shape tensor.Shape,
	requiresGrad bool,
	newNode func() tensor.Operation,
	kernel func(b tensor.Backend, dst tensor.Buffer) error,
) (*tensor.Tensor, error) {
	dst, err := b.Allocate(shape.NumElements())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := kernel(b, dst); err != nil {
		b.Free(dst)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var node tensor.Operation
	if requiresGrad {
		node = newNode()
	}
	out, err := tensor.FromBuffer(b, shape, dst, requiresGrad, node)
	if err != nil {
		b.Free(dst)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
