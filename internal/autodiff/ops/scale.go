package ops

import "github.com/born-ml/gradcore/internal/tensor"

// ScaleOp represents multiplication by a constant: output = s * x.
//
// Backward pass:
//   - grad_x = s * outputGrad
type ScaleOp struct {
	x     *tensor.Tensor
	s     float32
	shape tensor.Shape
}

// NewScaleOp creates a new ScaleOp.
func NewScaleOp(x *tensor.Tensor, s float32) *ScaleOp {
	return &ScaleOp{x: x, s: s, shape: x.Shape()}
}

// Kind returns tensor.OpScale.
func (op *ScaleOp) Kind() tensor.OpKind { return tensor.OpScale }

// Inputs returns [x].
func (op *ScaleOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.x} }

// OutputShape returns x's shape.
func (op *ScaleOp) OutputShape() tensor.Shape { return op.shape.Clone() }

// Factor returns the constant s.
func (op *ScaleOp) Factor() float32 { return op.s }

// Backward computes grad_x = s * outputGrad.
func (op *ScaleOp) Backward(outputGrad tensor.Buffer, b tensor.Backend) ([]tensor.Buffer, error) {
	out := newArena(b, outputGrad.Len())
	if _, err := scaled(out, outputGrad, op.s); err != nil {
		out.free()
		return nil, backwardError(op.Kind(), err)
	}
	return out.grads(), nil
}
