package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/born-ml/gradcore/internal/tensor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/born-ml/gradcore/optim")

// SGD implements plain Stochastic Gradient Descent.
//
// Update rule:
//
//	param = param - lr * gradient
//
// Example:
//
//	sgd, err := optim.NewSGD(params, optim.SGDConfig{LR: 0.01})
type SGD struct {
	params []*tensor.Tensor
	lr     float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR float32 // Learning rate, must be positive
}

// DefaultSGDConfig returns an SGD configuration with LR 0.01.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{LR: 0.01}
}

var _ Optimizer = (*SGD)(nil)

// NewSGD creates an SGD optimizer over params.
// Returns tensor.ErrInvalidLearningRate unless config.LR is a positive finite number.
func NewSGD(params []*tensor.Tensor, config SGDConfig) (*SGD, error) {
	if err := validateLR(config.LR); err != nil {
		return nil, fmt.Errorf("sgd: %w", err)
	}
	s := &SGD{
		params: append([]*tensor.Tensor(nil), params...),
		lr:     config.LR,
	}
	learningRate.WithLabelValues("sgd").Set(float64(s.lr))
	return s, nil
}

func validateLR(lr float32) error {
	v := float64(lr)
	if math.IsNaN(v) || math.IsInf(v, 0) || lr <= 0 {
		return fmt.Errorf("learning rate %v: %w", lr, tensor.ErrInvalidLearningRate)
	}
	return nil
}

// Step performs a single optimization step.
//
// Every parameter is checked before any is modified: a parameter that does not
// require gradients or has no gradient yet fails the whole step with
// tensor.ErrMissingGradient.
func (s *SGD) Step() error {
	return s.StepContext(context.Background())
}

// StepContext is Step with a context carrying the trace span.
func (s *SGD) StepContext(ctx context.Context) (err error) {
	_, span := tracer.Start(ctx, "optim.SGD.Step")
	defer span.End()
	span.SetAttributes(
		attribute.Int("params", len(s.params)),
		attribute.Float64("lr", float64(s.lr)),
	)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		optimizerSteps.WithLabelValues("sgd", status).Inc()
	}()

	type update struct {
		backend    tensor.Backend
		data, grad tensor.Buffer
	}
	updates := make([]update, len(s.params))
	for i, p := range s.params {
		if !p.RequiresGrad() {
			return fmt.Errorf("sgd step: parameter %d does not require grad: %w", i, tensor.ErrMissingGradient)
		}
		grad := p.GradBuffer()
		if grad == nil {
			return fmt.Errorf("sgd step: parameter %d: %w", i, tensor.ErrMissingGradient)
		}
		data, err := p.Buffer()
		if err != nil {
			return fmt.Errorf("sgd step: parameter %d: %w", i, err)
		}
		updates[i] = update{backend: p.Backend(), data: data, grad: grad}
	}

	for i, u := range updates {
		if err := u.backend.AddScaled(u.data, -s.lr, u.grad); err != nil {
			return fmt.Errorf("sgd step: parameter %d: %w", i, err)
		}
	}
	return nil
}

// ZeroGrad zeroes the gradient of every parameter that has one.
func (s *SGD) ZeroGrad() error {
	for i, p := range s.params {
		if err := p.ZeroGrad(); err != nil {
			return fmt.Errorf("sgd zero grad: parameter %d: %w", i, err)
		}
	}
	return nil
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) error {
	if err := validateLR(lr); err != nil {
		return fmt.Errorf("sgd: %w", err)
	}
	s.lr = lr
	learningRate.WithLabelValues("sgd").Set(float64(lr))
	return nil
}

// Parameters returns the tensors the optimizer updates.
func (s *SGD) Parameters() []*tensor.Tensor {
	return append([]*tensor.Tensor(nil), s.params...)
}
