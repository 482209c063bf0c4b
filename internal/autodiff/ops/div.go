package ops

import "github.com/born-ml/gradcore/internal/tensor"

// DivOp represents an element-wise division: output = a / b.
//
// Backward pass:
//   - d(a/b)/da = 1/b, so grad_a = outputGrad / b
//   - d(a/b)/db = -a/b², so grad_b = -(outputGrad / b) * a / b
type DivOp struct {
	binaryOperands
}

// NewDivOp creates a new DivOp.
func NewDivOp(a, b *tensor.Tensor) *DivOp {
	return &DivOp{newBinaryOperands(a, b)}
}

// Kind returns tensor.OpDiv.
func (op *DivOp) Kind() tensor.OpKind { return tensor.OpDiv }

// Backward computes input gradients for division.
func (op *DivOp) Backward(outputGrad tensor.Buffer, b tensor.Backend) ([]tensor.Buffer, error) {
	grads, err := op.backward(outputGrad, b)
	if err != nil {
		return nil, backwardError(op.Kind(), err)
	}
	return grads, nil
}

func (op *DivOp) backward(outputGrad tensor.Buffer, b tensor.Backend) ([]tensor.Buffer, error) {
	aBuf, err := op.a.Buffer()
	if err != nil {
		return nil, err
	}
	bBuf, err := op.b.Buffer()
	if err != nil {
		return nil, err
	}

	n := outputGrad.Len()
	tmp := newArena(b, n)
	defer tmp.free()
	out := newArena(b, n)

	// q = outputGrad / b is shared by both gradients.
	q, err := tmp.alloc()
	if err == nil {
		err = b.Div(q, outputGrad, bBuf)
	}
	if err != nil {
		return nil, err
	}

	for _, slot := range op.slots {
		if slot == lhs {
			if _, err := scaled(out, q, 1); err != nil {
				out.free()
				return nil, err
			}
			continue
		}
		if err := divRHS(out, tmp, q, aBuf, bBuf); err != nil {
			out.free()
			return nil, err
		}
	}
	return out.grads(), nil
}

// divRHS appends -(q * a) / b to out.
func divRHS(out, tmp *arena, q, a, b tensor.Buffer) error {
	be := out.backend
	qa, err := tmp.alloc()
	if err != nil {
		return err
	}
	if err := be.Mul(qa, q, a); err != nil {
		return err
	}
	ratio, err := tmp.alloc()
	if err != nil {
		return err
	}
	if err := be.Div(ratio, qa, b); err != nil {
		return err
	}
	_, err = scaled(out, ratio, -1)
	return err
}
