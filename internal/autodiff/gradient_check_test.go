package autodiff_test

import (
	"testing"

	"github.com/born-ml/gradcore/internal/autodiff"
	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numericalGradient estimates d f / d x_i with central differences.
func numericalGradient(f func(x []float32) float32, x []float32, epsilon float32) []float32 {
	grads := make([]float32, len(x))
	probe := append([]float32(nil), x...)
	for i := range x {
		probe[i] = x[i] + epsilon
		plus := f(probe)
		probe[i] = x[i] - epsilon
		minus := f(probe)
		probe[i] = x[i]
		grads[i] = (plus - minus) / (2 * epsilon)
	}
	return grads
}

// binaryLoss builds Σ op(a, b) and returns its value.
type binaryFn func(a, b *tensor.Tensor) (*tensor.Tensor, error)

func TestGradientCheck_Binary(t *testing.T) {
	aData := []float32{0.5, -1.25, 2}
	bData := []float32{1.5, 0.75, -2.5}

	tests := []struct {
		name string
		fn   binaryFn
	}{
		{"Add", autodiff.Add},
		{"Sub", autodiff.Sub},
		{"Mul", autodiff.Mul},
		{"Div", autodiff.Div},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newContext()
			eval := func(av, bv []float32) float32 {
				a := fromSlice(t, ctx, false, av...)
				b := fromSlice(t, ctx, false, bv...)
				out, err := tt.fn(a, b)
				require.NoError(t, err)
				y, err := autodiff.Sum(out)
				require.NoError(t, err)
				v, err := y.Item()
				require.NoError(t, err)
				return v
			}

			a := fromSlice(t, ctx, true, aData...)
			b := fromSlice(t, ctx, true, bData...)
			out, err := tt.fn(a, b)
			require.NoError(t, err)
			y, err := autodiff.Sum(out)
			require.NoError(t, err)
			require.NoError(t, autodiff.Backward(y))

			wantA := numericalGradient(func(x []float32) float32 { return eval(x, bData) }, aData, 1e-3)
			wantB := numericalGradient(func(x []float32) float32 { return eval(aData, x) }, bData, 1e-3)
			assert.InDeltaSlice(t, wantA, grad(t, a), 1e-2)
			assert.InDeltaSlice(t, wantB, grad(t, b), 1e-2)
		})
	}
}

func TestGradientCheck_Scale(t *testing.T) {
	ctx := newContext()
	xData := []float32{1, -2, 0.5}
	const s = -1.5

	x := fromSlice(t, ctx, true, xData...)
	sc, err := autodiff.Scale(x, s)
	require.NoError(t, err)
	sq, err := autodiff.Square(sc)
	require.NoError(t, err)
	y, err := autodiff.Sum(sq)
	require.NoError(t, err)
	require.NoError(t, autodiff.Backward(y))

	// y = Σ (s x)²  =>  dy/dx = 2 s² x
	want := numericalGradient(func(v []float32) float32 {
		var total float32
		for _, e := range v {
			total += (s * e) * (s * e)
		}
		return total
	}, xData, 1e-3)
	assert.InDeltaSlice(t, want, grad(t, x), 1e-2)
}

func TestEqual_NotDifferentiable(t *testing.T) {
	ctx := newContext()
	a := fromSlice(t, ctx, true, 1, 2, 3)
	b := fromSlice(t, ctx, true, 1, 0, 3)

	eq, err := autodiff.Equal(a, b, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 1}, data(t, eq))
	assert.False(t, eq.RequiresGrad())
	assert.Nil(t, eq.Node())

	total, err := autodiff.Sum(eq)
	require.NoError(t, err)
	assert.ErrorIs(t, autodiff.Backward(total), tensor.ErrNoGradGraph)
}
