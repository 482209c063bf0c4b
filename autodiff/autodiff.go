// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Differentiable functions record a node on their result whenever an input
// requires gradients. Backward walks that graph from a single-element root and
// accumulates d(root)/d(x) into every tracked tensor x.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gradcore/autodiff"
//	    "github.com/born-ml/gradcore/tensor"
//	)
//
//	func main() {
//	    ctx := tensor.NewContext(tensor.DefaultConfig())
//	    x, _ := ctx.Rand(tensor.Shape{4}, tensor.RequiresGrad(true))
//
//	    sq, _ := autodiff.Square(x)
//	    y, _ := autodiff.Sum(sq)
//	    _ = autodiff.Backward(y)
//
//	    grad, _ := x.GradData() // 2 * x
//	}
package autodiff

import (
	"context"

	"github.com/born-ml/gradcore/internal/autodiff"
	"github.com/born-ml/gradcore/tensor"
)

// BackwardOption configures a backward pass.
type BackwardOption = autodiff.BackwardOption

// ResetGrads zeroes existing gradients before the pass instead of adding to them.
func ResetGrads() BackwardOption {
	return autodiff.ResetGrads()
}

// Backward computes gradients of root with respect to every tracked tensor
// in its graph. Gradients accumulate across calls unless ResetGrads is given.
func Backward(root *tensor.Tensor, opts ...BackwardOption) error {
	return autodiff.Backward(root, opts...)
}

// BackwardContext is Backward with a context for tracing.
func BackwardContext(ctx context.Context, root *tensor.Tensor, opts ...BackwardOption) error {
	return autodiff.BackwardContext(ctx, root, opts...)
}

// Graph returns the nodes reachable from root in the order Backward visits them.
func Graph(root *tensor.Tensor) []tensor.Operation {
	return autodiff.Graph(root)
}

// Square returns x*x element-wise.
func Square(x *tensor.Tensor) (*tensor.Tensor, error) {
	return autodiff.Square(x)
}

// Sum reduces x to a scalar.
func Sum(x *tensor.Tensor) (*tensor.Tensor, error) {
	return autodiff.Sum(x)
}

// Scale returns x*s.
func Scale(x *tensor.Tensor, s float32) (*tensor.Tensor, error) {
	return autodiff.Scale(x, s)
}

// Add returns a+b element-wise.
func Add(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return autodiff.Add(a, b)
}

// Sub returns a-b element-wise.
func Sub(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return autodiff.Sub(a, b)
}

// Mul returns a*b element-wise.
func Mul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return autodiff.Mul(a, b)
}

// Div returns a/b element-wise with IEEE-754 semantics for zero divisors.
func Div(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return autodiff.Div(a, b)
}

// Equal returns 1 where |a-b| < eps and 0 elsewhere. The result is never
// tracked.
func Equal(a, b *tensor.Tensor, eps float32) (*tensor.Tensor, error) {
	return autodiff.Equal(a, b, eps)
}
