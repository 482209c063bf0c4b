package tensor

import "errors"

// Errors returned by tensor operations, the backward engine and optimizers.
// Call sites wrap them with context; match with errors.Is.
var (
	// ErrShapeMismatch is returned when operand shapes are incompatible.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDeviceMismatch is returned when operands live on different devices.
	ErrDeviceMismatch = errors.New("device mismatch")

	// ErrUnsupportedDevice is returned when a device has no usable backend.
	ErrUnsupportedDevice = errors.New("unsupported device")

	// ErrOutOfMemory is returned when a backend cannot satisfy an allocation.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrNotScalar is returned when backward is called on a non-scalar root.
	ErrNotScalar = errors.New("backward root is not a scalar")

	// ErrNoGradGraph is returned when backward is called on a tensor without a graph node.
	ErrNoGradGraph = errors.New("tensor has no gradient graph")

	// ErrMissingGradient is returned when a gradient is read or applied before it exists.
	ErrMissingGradient = errors.New("missing gradient")

	// ErrInvalidLearningRate is returned for non-positive learning rates.
	ErrInvalidLearningRate = errors.New("invalid learning rate")

	// ErrReleased is returned when a released tensor is used.
	ErrReleased = errors.New("tensor released")
)
