package ops

import "github.com/born-ml/gradcore/internal/tensor"

// SubOp represents an element-wise subtraction: output = a - b.
//
// Backward pass:
//   - grad_a = outputGrad
//   - grad_b = -outputGrad
type SubOp struct {
	binaryOperands
}

// NewSubOp creates a new SubOp.
func NewSubOp(a, b *tensor.Tensor) *SubOp {
	return &SubOp{newBinaryOperands(a, b)}
}

// Kind returns tensor.OpSub.
func (op *SubOp) Kind() tensor.OpKind { return tensor.OpSub }

// Backward computes input gradients for subtraction.
func (op *SubOp) Backward(outputGrad tensor.Buffer, b tensor.Backend) ([]tensor.Buffer, error) {
	out := newArena(b, outputGrad.Len())
	for _, slot := range op.slots {
		sign := float32(1)
		if slot == rhs {
			sign = -1
		}
		if _, err := scaled(out, outputGrad, sign); err != nil {
			out.free()
			return nil, backwardError(op.Kind(), err)
		}
	}
	return out.grads(), nil
}
