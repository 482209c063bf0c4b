// Package optim implements optimization algorithms that update tensors from
// their accumulated gradients.
//
// Example usage:
//
//	opt, err := optim.NewSGD([]*tensor.Tensor{w}, optim.SGDConfig{LR: 0.1})
//	for range steps {
//	    loss := computeLoss(w)
//	    _ = autodiff.Backward(loss)
//	    _ = opt.Step()
//	    _ = opt.ZeroGrad()
//	}
package optim

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters in place.
	Step() error

	// ZeroGrad zeroes every existing parameter gradient.
	// Call it between iterations, since Backward accumulates.
	ZeroGrad() error

	// GetLR returns the current learning rate.
	GetLR() float32
}
