package cpu

import (
	"fmt"

	"github.com/born-ml/gradcore/internal/tensor"
)

// Sum writes the sum of all elements of x into the single element of dst.
// Accumulation is done in float64.
func (cpu *CPUBackend) Sum(dst, x tensor.Buffer) error {
	d, err := hostData("sum", dst)
	if err != nil {
		return err
	}
	src, err := hostData("sum", x)
	if err != nil {
		return err
	}
	if len(d) != 1 {
		return fmt.Errorf("cpu: sum: destination has %d elements, want 1: %w", len(d), tensor.ErrShapeMismatch)
	}

	var sum float64
	for _, v := range src {
		sum += float64(v)
	}
	d[0] = float32(sum)
	return nil
}

// Broadcast sets every element of dst to the single element of src.
func (cpu *CPUBackend) Broadcast(dst, src tensor.Buffer) error {
	s, err := hostData("broadcast", src)
	if err != nil {
		return err
	}
	if len(s) != 1 {
		return fmt.Errorf("cpu: broadcast: source has %d elements, want 1: %w", len(s), tensor.ErrShapeMismatch)
	}
	return cpu.Fill(dst, s[0])
}
