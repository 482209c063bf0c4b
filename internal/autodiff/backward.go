package autodiff

import (
	"context"
	"fmt"

	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/born-ml/gradcore/autodiff")

// BackwardOption configures a backward pass.
type BackwardOption func(*backwardOptions)

type backwardOptions struct {
	resetGrads bool
}

// ResetGrads zeroes the existing gradient of every tensor reached from the root
// before accumulating, so the pass leaves single-pass gradients instead of adding
// to previous ones.
func ResetGrads() BackwardOption {
	return func(o *backwardOptions) {
		o.resetGrads = true
	}
}

// Backward computes d(root)/d(t) for every tensor t reachable from root and adds
// it into t's gradient when t requires gradients.
//
// root must have exactly one element (ErrNotScalar) and must have been produced
// by a differentiable function with at least one grad-requiring input
// (ErrNoGradGraph). Repeated calls accumulate unless ResetGrads is given.
//
// Example:
//
//	x, _ := ctx.Ones(tensor.Shape{2, 2}, tensor.RequiresGrad(true))
//	sq, _ := autodiff.Square(x)
//	y, _ := autodiff.Sum(sq)
//	_ = autodiff.Backward(y) // x.grad = [2 2 2 2]
func Backward(root *tensor.Tensor, opts ...BackwardOption) error {
	return BackwardContext(context.Background(), root, opts...)
}

// BackwardContext is Backward with a context carrying the trace span.
func BackwardContext(ctx context.Context, root *tensor.Tensor, opts ...BackwardOption) (err error) {
	device := root.Device().String()
	_, span := tracer.Start(ctx, "autodiff.Backward",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("device", device)),
	)
	defer span.End()

	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		backwardPasses.WithLabelValues(device, status).Inc()
	}()

	var o backwardOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !root.Shape().IsScalar() {
		return fmt.Errorf("backward: root shape %v: %w", root.Shape(), tensor.ErrNotScalar)
	}
	if root.Node() == nil {
		return fmt.Errorf("backward: %w", tensor.ErrNoGradGraph)
	}

	order := topoSort(root)
	span.SetAttributes(
		attribute.Int("tensors", len(order)),
		attribute.Bool("reset_grads", o.resetGrads),
	)
	backwardGraphSize.Observe(float64(len(order)))

	if o.resetGrads {
		for _, t := range order {
			if err := t.ZeroGrad(); err != nil {
				return fmt.Errorf("backward: reset grads: %w", err)
			}
		}
	}

	p := newPass(root.Backend())
	defer p.release()

	nodes, err := p.run(root, order)
	backwardNodes.WithLabelValues(device).Add(float64(nodes))
	if err != nil {
		return fmt.Errorf("backward: %w", err)
	}

	log.Debug().
		Int("tensors", len(order)).
		Int("nodes", nodes).
		Str("device", device).
		Msg("backward pass complete")
	return nil
}

// Graph returns the nodes reachable from root in topological order (inputs
// before the nodes that consume them). Each node appears exactly once.
func Graph(root *tensor.Tensor) []tensor.Operation {
	order := topoSort(root)
	nodes := make([]tensor.Operation, 0, len(order))
	for _, t := range order {
		if n := t.Node(); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// topoSort returns every tensor reachable from root, each once, ordered so that a
// tensor comes after all of its node's inputs. The walk is iterative so deep
// chains do not grow the goroutine stack.
func topoSort(root *tensor.Tensor) []*tensor.Tensor {
	type frame struct {
		t      *tensor.Tensor
		inputs []*tensor.Tensor
		next   int
	}
	inputsOf := func(t *tensor.Tensor) []*tensor.Tensor {
		if n := t.Node(); n != nil {
			return n.Inputs()
		}
		return nil
	}

	visited := map[*tensor.Tensor]bool{root: true}
	stack := []frame{{t: root, inputs: inputsOf(root)}}
	var order []*tensor.Tensor

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.inputs) {
			in := top.inputs[top.next]
			top.next++
			if !visited[in] {
				visited[in] = true
				stack = append(stack, frame{t: in, inputs: inputsOf(in)})
			}
			continue
		}
		order = append(order, top.t)
		stack = stack[:len(stack)-1]
	}
	return order
}

// pass holds the pass-local gradients of one backward call.
type pass struct {
	backend tensor.Backend
	grads   map[*tensor.Tensor]tensor.Buffer
}

func newPass(b tensor.Backend) *pass {
	return &pass{backend: b, grads: make(map[*tensor.Tensor]tensor.Buffer)}
}

// run seeds root with ones and propagates gradients in reverse topological order.
// It returns the number of nodes differentiated.
func (p *pass) run(root *tensor.Tensor, order []*tensor.Tensor) (int, error) {
	seed, err := p.backend.Allocate(1)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	p.grads[root] = seed
	if err := p.backend.Fill(seed, 1); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}

	nodes := 0
	for i := len(order) - 1; i >= 0; i-- {
		t := order[i]
		g, ok := p.grads[t]
		if !ok {
			continue
		}
		// Every consumer of t comes later in order, so g is complete here.
		if err := t.AccumulateGrad(g); err != nil {
			return nodes, err
		}
		if node := t.Node(); node != nil {
			if err := p.propagate(node, g); err != nil {
				return nodes, err
			}
			nodes++
		}
		delete(p.grads, t)
		p.backend.Free(g)
	}
	return nodes, nil
}

// propagate runs node's derivative and adds each contribution into the
// pass-local gradient of the matching input.
func (p *pass) propagate(node tensor.Operation, g tensor.Buffer) error {
	if err := p.backend.Synchronize(); err != nil {
		return err
	}
	contributions, err := node.Backward(g, p.backend)
	if err != nil {
		return err
	}
	inputs := node.Inputs()
	if len(contributions) != len(inputs) {
		for _, c := range contributions {
			p.backend.Free(c)
		}
		return fmt.Errorf("%s backward: %d gradients for %d inputs", node.Kind(), len(contributions), len(inputs))
	}

	for j, in := range inputs {
		c := contributions[j]
		existing, ok := p.grads[in]
		if !ok {
			p.grads[in] = c
			continue
		}
		err := p.backend.AddScaled(existing, 1, c)
		p.backend.Free(c)
		if err != nil {
			for _, rest := range contributions[j+1:] {
				p.backend.Free(rest)
			}
			return err
		}
	}
	return nil
}

// release frees the pass-local gradients left after an aborted pass.
func (p *pass) release() {
	for t, g := range p.grads {
		p.backend.Free(g)
		delete(p.grads, t)
	}
}
