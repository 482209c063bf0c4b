package ops

import "github.com/born-ml/gradcore/internal/tensor"

// AddOp represents an element-wise addition: output = a + b.
//
// Backward pass:
//   - grad_a = outputGrad
//   - grad_b = outputGrad
type AddOp struct {
	binaryOperands
}

// NewAddOp creates a new AddOp.
func NewAddOp(a, b *tensor.Tensor) *AddOp {
	return &AddOp{newBinaryOperands(a, b)}
}

// Kind returns tensor.OpAdd.
func (op *AddOp) Kind() tensor.OpKind { return tensor.OpAdd }

// Backward passes outputGrad through to every tracked operand.
func (op *AddOp) Backward(outputGrad tensor.Buffer, b tensor.Backend) ([]tensor.Buffer, error) {
	out := newArena(b, outputGrad.Len())
	for range op.inputs {
		if _, err := scaled(out, outputGrad, 1); err != nil {
			out.free()
			return nil, backwardError(op.Kind(), err)
		}
	}
	return out.grads(), nil
}
