package ops

import "github.com/born-ml/gradcore/internal/tensor"

// MulOp represents an element-wise multiplication: output = a * b.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outputGrad * b
//   - d(a*b)/db = a, so grad_b = outputGrad * a
type MulOp struct {
	binaryOperands
}

// NewMulOp creates a new MulOp.
func NewMulOp(a, b *tensor.Tensor) *MulOp {
	return &MulOp{newBinaryOperands(a, b)}
}

// Kind returns tensor.OpMul.
func (op *MulOp) Kind() tensor.OpKind { return tensor.OpMul }

// Backward computes input gradients for multiplication.
func (op *MulOp) Backward(outputGrad tensor.Buffer, b tensor.Backend) ([]tensor.Buffer, error) {
	out := newArena(b, outputGrad.Len())
	for _, slot := range op.slots {
		other := op.b
		if slot == rhs {
			other = op.a
		}
		if _, err := product(out, outputGrad, other); err != nil {
			out.free()
			return nil, backwardError(op.Kind(), err)
		}
	}
	return out.grads(), nil
}
