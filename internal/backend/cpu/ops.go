package cpu

import (
	"math"

	"github.com/born-ml/gradcore/internal/parallel"
	"github.com/born-ml/gradcore/internal/tensor"
	"gonum.org/v1/gonum/blas/blas32"
)

// vec views s as a unit-stride BLAS vector.
func vec(s []float32) blas32.Vector {
	return blas32.Vector{N: len(s), Inc: 1, Data: s}
}

// Fill sets every element of dst to value.
func (cpu *CPUBackend) Fill(dst tensor.Buffer, value float32) error {
	ops, err := operands("fill", dst)
	if err != nil {
		return err
	}
	d := ops[0]
	parallel.ForRange(len(d), func(start, end int) {
		for i := start; i < end; i++ {
			d[i] = value
		}
	}, cpu.cfg.Parallel)
	return nil
}

// binary runs f over matching chunks of dst, a and b.
func (cpu *CPUBackend) binary(op string, dst, a, b tensor.Buffer, f func(d, x, y []float32)) error {
	ops, err := operands(op, dst, a, b)
	if err != nil {
		return err
	}
	d, x, y := ops[0], ops[1], ops[2]
	parallel.ForRange(len(d), func(start, end int) {
		f(d[start:end], x[start:end], y[start:end])
	}, cpu.cfg.Parallel)
	return nil
}

// Add computes dst = a + b.
func (cpu *CPUBackend) Add(dst, a, b tensor.Buffer) error {
	return cpu.binary("add", dst, a, b, func(d, x, y []float32) {
		for i := range d {
			d[i] = x[i] + y[i]
		}
	})
}

// Sub computes dst = a - b.
func (cpu *CPUBackend) Sub(dst, a, b tensor.Buffer) error {
	return cpu.binary("sub", dst, a, b, func(d, x, y []float32) {
		for i := range d {
			d[i] = x[i] - y[i]
		}
	})
}

// Mul computes dst = a * b element-wise.
func (cpu *CPUBackend) Mul(dst, a, b tensor.Buffer) error {
	return cpu.binary("mul", dst, a, b, func(d, x, y []float32) {
		for i := range d {
			d[i] = x[i] * y[i]
		}
	})
}

// Div computes dst = a / b element-wise. Division by zero follows IEEE 754.
func (cpu *CPUBackend) Div(dst, a, b tensor.Buffer) error {
	return cpu.binary("div", dst, a, b, func(d, x, y []float32) {
		for i := range d {
			d[i] = x[i] / y[i]
		}
	})
}

// Equal writes 1 where |a-b| < eps and 0 elsewhere.
func (cpu *CPUBackend) Equal(dst, a, b tensor.Buffer, eps float32) error {
	return cpu.binary("equal", dst, a, b, func(d, x, y []float32) {
		for i := range d {
			if float32(math.Abs(float64(x[i]-y[i]))) < eps {
				d[i] = 1
			} else {
				d[i] = 0
			}
		}
	})
}

// Square computes dst = x * x.
func (cpu *CPUBackend) Square(dst, x tensor.Buffer) error {
	ops, err := operands("square", dst, x)
	if err != nil {
		return err
	}
	d, s := ops[0], ops[1]
	parallel.ForRange(len(d), func(start, end int) {
		for i := start; i < end; i++ {
			d[i] = s[i] * s[i]
		}
	}, cpu.cfg.Parallel)
	return nil
}

// Scale computes dst = s * x.
func (cpu *CPUBackend) Scale(dst, x tensor.Buffer, s float32) error {
	ops, err := operands("scale", dst, x)
	if err != nil {
		return err
	}
	d, src := ops[0], ops[1]
	parallel.ForRange(len(d), func(start, end int) {
		dv := vec(d[start:end])
		blas32.Copy(vec(src[start:end]), dv)
		blas32.Scal(s, dv)
	}, cpu.cfg.Parallel)
	return nil
}

// AddScaled computes dst += alpha * x.
func (cpu *CPUBackend) AddScaled(dst tensor.Buffer, alpha float32, x tensor.Buffer) error {
	ops, err := operands("add scaled", dst, x)
	if err != nil {
		return err
	}
	d, src := ops[0], ops[1]
	parallel.ForRange(len(d), func(start, end int) {
		blas32.Axpy(alpha, vec(src[start:end]), vec(d[start:end]))
	}, cpu.cfg.Parallel)
	return nil
}
