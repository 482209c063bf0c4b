package ops

import "github.com/born-ml/gradcore/internal/tensor"

// SumOp represents the reduction y = Σ x over all elements; y is a scalar.
//
// Backward pass:
//   - dy/dx_i = 1, so grad_x is outputGrad broadcast to x's shape
type SumOp struct {
	x *tensor.Tensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(x *tensor.Tensor) *SumOp {
	return &SumOp{x: x}
}

// Kind returns tensor.OpSum.
func (op *SumOp) Kind() tensor.OpKind { return tensor.OpSum }

// Inputs returns [x].
func (op *SumOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.x} }

// OutputShape returns the scalar shape.
func (op *SumOp) OutputShape() tensor.Shape { return tensor.Shape{} }

// Backward broadcasts the scalar outputGrad to x's shape.
func (op *SumOp) Backward(outputGrad tensor.Buffer, b tensor.Backend) ([]tensor.Buffer, error) {
	out := newArena(b, op.x.NumElements())
	dst, err := out.alloc()
	if err == nil {
		err = b.Broadcast(dst, outputGrad)
	}
	if err != nil {
		out.free()
		return nil, backwardError(op.Kind(), err)
	}
	return out.grads(), nil
}
