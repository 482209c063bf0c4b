package ops

import "github.com/born-ml/gradcore/internal/tensor"

// SquareOp represents y = x * x.
//
// Backward pass:
//   - dy/dx = 2x, so grad_x = 2 * x * outputGrad
type SquareOp struct {
	x     *tensor.Tensor
	shape tensor.Shape
}

// NewSquareOp creates a new SquareOp.
func NewSquareOp(x *tensor.Tensor) *SquareOp {
	return &SquareOp{x: x, shape: x.Shape()}
}

// Kind returns tensor.OpSquare.
func (op *SquareOp) Kind() tensor.OpKind { return tensor.OpSquare }

// Inputs returns [x].
func (op *SquareOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.x} }

// OutputShape returns x's shape.
func (op *SquareOp) OutputShape() tensor.Shape { return op.shape.Clone() }

// Backward computes grad_x = 2 * x * outputGrad.
func (op *SquareOp) Backward(outputGrad tensor.Buffer, b tensor.Backend) ([]tensor.Buffer, error) {
	tmp := newArena(b, outputGrad.Len())
	defer tmp.free()
	gx, err := product(tmp, outputGrad, op.x)
	if err != nil {
		return nil, backwardError(op.Kind(), err)
	}

	out := newArena(b, outputGrad.Len())
	if _, err := scaled(out, gx, 2); err != nil {
		out.free()
		return nil, backwardError(op.Kind(), err)
	}
	return out.grads(), nil
}
