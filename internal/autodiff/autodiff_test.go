package autodiff_test

import (
	"testing"

	"github.com/born-ml/gradcore/internal/autodiff"
	"github.com/born-ml/gradcore/internal/backend/cpu"
	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() *tensor.Context {
	return tensor.NewContext(tensor.DefaultConfig(), cpu.New())
}

func fromSlice(t *testing.T, ctx *tensor.Context, grad bool, data ...float32) *tensor.Tensor {
	t.Helper()
	x, err := ctx.FromSlice(data, tensor.Shape{len(data)}, tensor.RequiresGrad(grad))
	require.NoError(t, err)
	return x
}

func data(t *testing.T, x *tensor.Tensor) []float32 {
	t.Helper()
	d, err := x.Data()
	require.NoError(t, err)
	return d
}

func grad(t *testing.T, x *tensor.Tensor) []float32 {
	t.Helper()
	g, err := x.GradData()
	require.NoError(t, err)
	return g
}

// sumOfSquares builds y = Σ x².
func sumOfSquares(t *testing.T, x *tensor.Tensor) *tensor.Tensor {
	t.Helper()
	sq, err := autodiff.Square(x)
	require.NoError(t, err)
	y, err := autodiff.Sum(sq)
	require.NoError(t, err)
	return y
}

func TestSumOfSquares_OnesScenario(t *testing.T) {
	ctx := newContext()
	x, err := ctx.Ones(tensor.Shape{2, 2}, tensor.RequiresGrad(true))
	require.NoError(t, err)

	y := sumOfSquares(t, x)
	assert.Equal(t, []float32{4}, data(t, y))

	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, []float32{2, 2, 2, 2}, grad(t, x))
}

func TestSumOfSquares_GradIsTwiceData(t *testing.T) {
	ctx := newContext()
	x, err := ctx.Rand(tensor.Shape{3, 5}, tensor.RequiresGrad(true))
	require.NoError(t, err)

	require.NoError(t, autodiff.Backward(sumOfSquares(t, x)))

	xs, gs := data(t, x), grad(t, x)
	for i := range xs {
		assert.InDelta(t, 2*xs[i], gs[i], 1e-6)
	}
}

func TestBackward_AccumulatesAcrossCalls(t *testing.T) {
	ctx := newContext()
	x, err := ctx.Ones(tensor.Shape{2, 2}, tensor.RequiresGrad(true))
	require.NoError(t, err)
	y := sumOfSquares(t, x)

	require.NoError(t, autodiff.Backward(y))
	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, []float32{4, 4, 4, 4}, grad(t, x))

	require.NoError(t, x.ZeroGrad())
	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, []float32{2, 2, 2, 2}, grad(t, x))
}

func TestBackward_ResetGrads(t *testing.T) {
	ctx := newContext()
	x, err := ctx.Ones(tensor.Shape{2, 2}, tensor.RequiresGrad(true))
	require.NoError(t, err)
	y := sumOfSquares(t, x)

	require.NoError(t, autodiff.Backward(y))
	require.NoError(t, autodiff.Backward(y, autodiff.ResetGrads()))
	assert.Equal(t, []float32{2, 2, 2, 2}, grad(t, x))
}

func TestBackward_Errors(t *testing.T) {
	ctx := newContext()

	t.Run("NotScalar", func(t *testing.T) {
		x := fromSlice(t, ctx, true, 1, 2)
		sq, err := autodiff.Square(x)
		require.NoError(t, err)
		assert.ErrorIs(t, autodiff.Backward(sq), tensor.ErrNotScalar)
	})

	t.Run("EmptyIsNotScalar", func(t *testing.T) {
		x, err := ctx.Zeros(tensor.Shape{0}, tensor.RequiresGrad(true))
		require.NoError(t, err)
		sq, err := autodiff.Square(x)
		require.NoError(t, err)
		assert.ErrorIs(t, autodiff.Backward(sq), tensor.ErrNotScalar)
	})

	t.Run("Leaf", func(t *testing.T) {
		x := fromSlice(t, ctx, true, 1)
		assert.ErrorIs(t, autodiff.Backward(x), tensor.ErrNoGradGraph)
	})

	t.Run("UntrackedResult", func(t *testing.T) {
		x := fromSlice(t, ctx, false, 1, 2)
		y, err := autodiff.Sum(x)
		require.NoError(t, err)
		assert.False(t, y.RequiresGrad())
		assert.ErrorIs(t, autodiff.Backward(y), tensor.ErrNoGradGraph)
	})
}

func TestBackward_Diamond(t *testing.T) {
	ctx := newContext()
	x := fromSlice(t, ctx, true, 3)

	// a = x², b = 2x, y = a + b  =>  dy/dx = 2x + 2 = 8
	a, err := autodiff.Square(x)
	require.NoError(t, err)
	b, err := autodiff.Scale(x, 2)
	require.NoError(t, err)
	s, err := autodiff.Add(a, b)
	require.NoError(t, err)
	y, err := autodiff.Sum(s)
	require.NoError(t, err)

	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, []float32{8}, grad(t, x))
}

func TestBackward_SharedOperand(t *testing.T) {
	ctx := newContext()
	x := fromSlice(t, ctx, true, 3)

	// y = x * x  =>  dy/dx = 2x
	m, err := autodiff.Mul(x, x)
	require.NoError(t, err)
	y, err := autodiff.Sum(m)
	require.NoError(t, err)

	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, []float32{6}, grad(t, x))

	nodes := autodiff.Graph(y)
	require.Len(t, nodes, 2)
	assert.Equal(t, tensor.OpMul, nodes[0].Kind())
	assert.Equal(t, tensor.OpSum, nodes[1].Kind())
}

func TestGraph_DiamondVisitsEachNodeOnce(t *testing.T) {
	ctx := newContext()
	x := fromSlice(t, ctx, true, 1, 2)

	sq, err := autodiff.Square(x)
	require.NoError(t, err)
	left, err := autodiff.Scale(sq, 2)
	require.NoError(t, err)
	right, err := autodiff.Scale(sq, 3)
	require.NoError(t, err)
	joined, err := autodiff.Add(left, right)
	require.NoError(t, err)
	y, err := autodiff.Sum(joined)
	require.NoError(t, err)

	nodes := autodiff.Graph(y)
	require.Len(t, nodes, 5)
	assert.Equal(t, tensor.OpSquare, nodes[0].Kind())
	assert.Equal(t, tensor.OpSum, nodes[4].Kind())

	// y = 5 Σ x²  =>  grad = 10x
	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, []float32{10, 20}, grad(t, x))
}

func TestGraph_LeafHasNoNodes(t *testing.T) {
	ctx := newContext()
	assert.Empty(t, autodiff.Graph(fromSlice(t, ctx, true, 1)))
}

func TestBackward_IntermediateGrads(t *testing.T) {
	ctx := newContext()
	x := fromSlice(t, ctx, true, 1, 2)
	sq, err := autodiff.Square(x)
	require.NoError(t, err)
	y, err := autodiff.Sum(sq)
	require.NoError(t, err)

	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, []float32{1, 1}, grad(t, sq))
	assert.Equal(t, []float32{1}, grad(t, y))
}

func TestBackward_OnlyTrackedLeavesReceiveGrad(t *testing.T) {
	ctx := newContext()
	a := fromSlice(t, ctx, true, 2, 3)
	b := fromSlice(t, ctx, false, 4, 5)

	m, err := autodiff.Mul(a, b)
	require.NoError(t, err)
	y, err := autodiff.Sum(m)
	require.NoError(t, err)

	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, []float32{4, 5}, grad(t, a))
	assert.False(t, b.HasGrad())
}

func TestBackward_NoBufferLeaks(t *testing.T) {
	b := cpu.New()
	ctx := tensor.NewContext(tensor.DefaultConfig(), b)
	x, err := ctx.Ones(tensor.Shape{8}, tensor.RequiresGrad(true))
	require.NoError(t, err)
	y := sumOfSquares(t, x)

	// x, x², y and x.grad, sq.grad, y.grad stay; every pass-local buffer is freed.
	require.NoError(t, autodiff.Backward(y))
	after := b.MemoryInUse()
	require.NoError(t, autodiff.Backward(y))
	assert.Equal(t, after, b.MemoryInUse())
}

func TestBackward_OutOfMemoryAborts(t *testing.T) {
	cfg := cpu.DefaultConfig()
	cfg.MemoryLimit = 3 * 4 * 4 // x, x², y and nothing else
	ctx := tensor.NewContext(tensor.DefaultConfig(), cpu.NewWithConfig(cfg))

	x, err := ctx.Ones(tensor.Shape{4}, tensor.RequiresGrad(true))
	require.NoError(t, err)
	y := sumOfSquares(t, x)

	assert.ErrorIs(t, autodiff.Backward(y), tensor.ErrOutOfMemory)
}
