// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based parameter updates.
//
// Example:
//
//	opt, err := optim.NewSGD([]*tensor.Tensor{w}, optim.SGDConfig{LR: 0.1})
//	if err != nil {
//	    return err
//	}
//	for range steps {
//	    loss, _ := lossFn(w)
//	    _ = autodiff.Backward(loss, autodiff.ResetGrads())
//	    _ = opt.Step()
//	}
package optim

import (
	"github.com/born-ml/gradcore/internal/optim"
	"github.com/born-ml/gradcore/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD represents plain stochastic gradient descent: p = p - lr * grad(p).
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

var _ Optimizer = (*SGD)(nil)

// DefaultSGDConfig returns the default SGD configuration.
func DefaultSGDConfig() SGDConfig {
	return optim.DefaultSGDConfig()
}

// NewSGD creates a new SGD optimizer over params. The learning rate must be
// finite and positive.
func NewSGD(params []*tensor.Tensor, config SGDConfig) (*SGD, error) {
	return optim.NewSGD(params, config)
}
