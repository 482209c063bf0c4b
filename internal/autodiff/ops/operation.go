// Package ops defines the graph node variants for automatic differentiation.
//
// Each node implements tensor.Operation, which provides:
//   - Inputs: the operands that require gradients (graph edges)
//   - Backward: gradients for those inputs given the output gradient
//
// Supported operations:
//   - SquareOp: y = x² (dy/dx = 2x)
//   - SumOp: y = Σx (dy/dx = 1, broadcast to x's shape)
//   - AddOp: element-wise addition (d(a+b)/da = 1, d(a+b)/db = 1)
//   - SubOp: element-wise subtraction (d(a-b)/db = -1)
//   - MulOp: element-wise multiplication (d(a*b)/da = b, d(a*b)/db = a)
//   - DivOp: element-wise division (d(a/b)/da = 1/b, d(a/b)/db = -a/b²)
//   - ScaleOp: multiplication by a constant (d(s*x)/dx = s)
//
// Operands that do not require gradients are still held by the node so the
// derivative can read their values, but they are not returned by Inputs.
package ops

import "github.com/born-ml/gradcore/internal/tensor"

// Operand positions of a binary node.
const (
	lhs = iota
	rhs
)

// binaryOperands holds the two operands of an element-wise node.
// slots[i] is the operand position (lhs or rhs) of inputs[i]; a tensor used as
// both operands appears twice.
type binaryOperands struct {
	a, b   *tensor.Tensor
	inputs []*tensor.Tensor
	slots  []int
	shape  tensor.Shape
}

func newBinaryOperands(a, b *tensor.Tensor) binaryOperands {
	o := binaryOperands{a: a, b: b, shape: a.Shape()}
	for slot, t := range []*tensor.Tensor{a, b} {
		if t.RequiresGrad() {
			o.inputs = append(o.inputs, t)
			o.slots = append(o.slots, slot)
		}
	}
	return o
}

// Inputs returns the operands that require gradients, in operand order.
func (o *binaryOperands) Inputs() []*tensor.Tensor {
	return o.inputs
}

// OutputShape returns the shape of the node's output.
func (o *binaryOperands) OutputShape() tensor.Shape {
	return o.shape.Clone()
}
