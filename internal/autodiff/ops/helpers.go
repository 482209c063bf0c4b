package ops

import (
	"fmt"

	"github.com/born-ml/gradcore/internal/tensor"
)

// arena allocates same-length buffers on one backend and frees them together.
type arena struct {
	backend tensor.Backend
	n       int
	bufs    []tensor.Buffer
}

func newArena(b tensor.Backend, n int) *arena {
	return &arena{backend: b, n: n}
}

func (a *arena) alloc() (tensor.Buffer, error) {
	buf, err := a.backend.Allocate(a.n)
	if err != nil {
		return nil, err
	}
	a.bufs = append(a.bufs, buf)
	return buf, nil
}

func (a *arena) free() {
	for _, buf := range a.bufs {
		a.backend.Free(buf)
	}
	a.bufs = nil
}

// grads returns the buffers that were allocated, keeping ownership with the caller.
func (a *arena) grads() []tensor.Buffer {
	out := a.bufs
	a.bufs = nil
	return out
}

// scaled returns a new buffer holding s * g.
func scaled(out *arena, g tensor.Buffer, s float32) (tensor.Buffer, error) {
	dst, err := out.alloc()
	if err != nil {
		return nil, err
	}
	return dst, out.backend.Scale(dst, g, s)
}

// product returns a new buffer holding g * x.
func product(out *arena, g tensor.Buffer, x *tensor.Tensor) (tensor.Buffer, error) {
	xb, err := x.Buffer()
	if err != nil {
		return nil, err
	}
	dst, err := out.alloc()
	if err != nil {
		return nil, err
	}
	return dst, out.backend.Mul(dst, g, xb)
}

// backwardError wraps err with the node kind.
func backwardError(kind tensor.OpKind, err error) error {
	return fmt.Errorf("%s backward: %w", kind, err)
}
