package autodiff_test

import (
	"math"
	"runtime"
	"testing"

	"github.com/born-ml/gradcore/internal/autodiff"
	"github.com/born-ml/gradcore/internal/backend/cpu"
	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceleratorStandIn reports the accelerator device while computing on the host,
// so device checks can be exercised without a GPU.
type acceleratorStandIn struct {
	*cpu.CPUBackend
}

func (acceleratorStandIn) Device() tensor.Device { return tensor.Accelerator }

func TestForward(t *testing.T) {
	ctx := newContext()
	a := fromSlice(t, ctx, false, 6, 8)
	b := fromSlice(t, ctx, false, 2, 4)

	tests := []struct {
		name string
		run  func() (*tensor.Tensor, error)
		want []float32
	}{
		{"Square", func() (*tensor.Tensor, error) { return autodiff.Square(a) }, []float32{36, 64}},
		{"Sum", func() (*tensor.Tensor, error) { return autodiff.Sum(a) }, []float32{14}},
		{"Scale", func() (*tensor.Tensor, error) { return autodiff.Scale(a, 0.5) }, []float32{3, 4}},
		{"Add", func() (*tensor.Tensor, error) { return autodiff.Add(a, b) }, []float32{8, 12}},
		{"Sub", func() (*tensor.Tensor, error) { return autodiff.Sub(a, b) }, []float32{4, 4}},
		{"Mul", func() (*tensor.Tensor, error) { return autodiff.Mul(a, b) }, []float32{12, 32}},
		{"Div", func() (*tensor.Tensor, error) { return autodiff.Div(a, b) }, []float32{3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.run()
			require.NoError(t, err)
			assert.Equal(t, tt.want, data(t, out))
			assert.False(t, out.RequiresGrad())
			assert.True(t, out.IsLeaf())
		})
	}
}

func TestSum_ScalarShape(t *testing.T) {
	ctx := newContext()
	x, err := ctx.Ones(tensor.Shape{2, 3})
	require.NoError(t, err)
	y, err := autodiff.Sum(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{}, y.Shape())
	v, err := y.Item()
	require.NoError(t, err)
	assert.Equal(t, float32(6), v)
}

func TestRequiresGradPropagation(t *testing.T) {
	ctx := newContext()
	a := fromSlice(t, ctx, true, 1)
	b := fromSlice(t, ctx, false, 2)

	out, err := autodiff.Add(a, b)
	require.NoError(t, err)
	assert.True(t, out.RequiresGrad())
	require.NotNil(t, out.Node())
	assert.Equal(t, tensor.OpAdd, out.Node().Kind())
	assert.Equal(t, []*tensor.Tensor{a}, out.Node().Inputs())
}

func TestDivByZero(t *testing.T) {
	ctx := newContext()
	out, err := autodiff.Div(fromSlice(t, ctx, false, 1), fromSlice(t, ctx, false, 0))
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(data(t, out)[0]), 1))
}

func TestShapeMismatch(t *testing.T) {
	ctx := newContext()
	a, err := ctx.Ones(tensor.Shape{2, 3})
	require.NoError(t, err)
	b, err := ctx.Ones(tensor.Shape{3, 2})
	require.NoError(t, err)

	for _, fn := range []binaryFn{autodiff.Add, autodiff.Sub, autodiff.Mul, autodiff.Div} {
		_, err := fn(a, b)
		assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	}
	_, err = autodiff.Equal(a, b, 0)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestDeviceMismatch(t *testing.T) {
	ctx := tensor.NewContext(tensor.DefaultConfig(), cpu.New(), acceleratorStandIn{cpu.New()})
	host, err := ctx.Ones(tensor.Shape{2})
	require.NoError(t, err)
	accel, err := ctx.Ones(tensor.Shape{2}, tensor.OnDevice(tensor.Accelerator))
	require.NoError(t, err)
	assert.Equal(t, tensor.Accelerator, accel.Device())

	_, err = autodiff.Add(host, accel)
	assert.ErrorIs(t, err, tensor.ErrDeviceMismatch)
	_, err = autodiff.Mul(accel, host)
	assert.ErrorIs(t, err, tensor.ErrDeviceMismatch)
}

func TestUnregisteredAcceleratorIsRejected(t *testing.T) {
	ctx := newContext()
	_, err := ctx.Ones(tensor.Shape{2}, tensor.OnDevice(tensor.Accelerator))
	assert.ErrorIs(t, err, tensor.ErrUnsupportedDevice)
}

func TestReleasedOperand(t *testing.T) {
	ctx := newContext()
	x := fromSlice(t, ctx, false, 1)
	x.Release()
	_, err := autodiff.Square(x)
	assert.ErrorIs(t, err, tensor.ErrReleased)
}

func TestForwardOutOfMemoryFreesNothingExtra(t *testing.T) {
	cfg := cpu.DefaultConfig()
	cfg.MemoryLimit = 8
	b := cpu.NewWithConfig(cfg)
	ctx := tensor.NewContext(tensor.DefaultConfig(), b)
	x, err := ctx.Ones(tensor.Shape{2})
	require.NoError(t, err)

	_, err = autodiff.Square(x)
	assert.ErrorIs(t, err, tensor.ErrOutOfMemory)
	assert.Equal(t, int64(8), b.MemoryInUse())
}

func TestForward_OperandsSurviveCollection(t *testing.T) {
	ctx := newContext()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				runtime.GC()
			}
		}
	}()

	for range 2000 {
		a, err := ctx.Full(tensor.Shape{64}, 2)
		require.NoError(t, err)
		b, err := ctx.Full(tensor.Shape{64}, 5)
		require.NoError(t, err)

		sum, err := autodiff.Add(a, b)
		require.NoError(t, err)
		got, err := sum.Data()
		require.NoError(t, err)
		require.Equal(t, float32(7), got[0])
	}
}
