package tensor

// OpKind tags the differentiable operation that produced a tensor.
type OpKind int

// Differentiable operation kinds.
const (
	OpSquare OpKind = iota
	OpSum
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpScale
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpSquare:
		return "Square"
	case OpSum:
		return "Sum"
	case OpAdd:
		return "Add"
	case OpSub:
		return "Sub"
	case OpMul:
		return "Mul"
	case OpDiv:
		return "Div"
	case OpScale:
		return "Scale"
	default:
		return "Unknown"
	}
}

// Operation is a graph node: the immutable record of one differentiable operation.
//
// A node is attached to the tensor it produced and holds references to the input
// tensors that require gradients, so edges point from outputs to inputs and the
// graph cannot contain cycles.
type Operation interface {
	// Kind returns the operation tag.
	Kind() OpKind

	// Inputs returns the input tensors that require gradients, in operand order.
	Inputs() []*Tensor

	// OutputShape returns the shape of the tensor this node produced.
	OutputShape() Shape

	// Backward maps the output gradient to one gradient buffer per entry of Inputs.
	// The returned buffers are newly allocated on b and owned by the caller.
	Backward(outputGrad Buffer, b Backend) ([]Buffer, error)
}
