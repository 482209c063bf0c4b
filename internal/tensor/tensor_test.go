package tensor_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/born-ml/gradcore/internal/backend/cpu"
	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(b tensor.Backend) *tensor.Context {
	return tensor.NewContext(tensor.DefaultConfig(), b)
}

func TestTensor_Metadata(t *testing.T) {
	ctx := newContext(cpu.New())
	x, err := ctx.Zeros(tensor.Shape{2, 3}, tensor.RequiresGrad(true))
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 3}, x.Shape())
	assert.Equal(t, 6, x.NumElements())
	assert.Equal(t, tensor.Host, x.Device())
	assert.True(t, x.RequiresGrad())
	assert.True(t, x.IsLeaf())
	assert.Nil(t, x.Node())
	assert.False(t, x.HasGrad())
	assert.Equal(t, "Tensor[2 3] on host (requires_grad=true, op=leaf)", x.String())

	// Shape returns a copy.
	s := x.Shape()
	s[0] = 99
	assert.Equal(t, tensor.Shape{2, 3}, x.Shape())
}

func TestTensor_Item(t *testing.T) {
	ctx := newContext(cpu.New())
	s, err := ctx.Full(tensor.Shape{}, 2.5)
	require.NoError(t, err)
	v, err := s.Item()
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), v)

	v1, err := ctx.Full(tensor.Shape{1, 1}, 4)
	require.NoError(t, err)
	v, err = v1.Item()
	require.NoError(t, err)
	assert.Equal(t, float32(4), v)

	m, err := ctx.Ones(tensor.Shape{2})
	require.NoError(t, err)
	_, err = m.Item()
	assert.ErrorIs(t, err, tensor.ErrNotScalar)
}

func TestTensor_Gradients(t *testing.T) {
	b := cpu.New()
	ctx := newContext(b)
	x, err := ctx.Ones(tensor.Shape{3}, tensor.RequiresGrad(true))
	require.NoError(t, err)

	_, err = x.GradData()
	assert.ErrorIs(t, err, tensor.ErrMissingGradient)

	// ZeroGrad leaves an absent gradient absent.
	require.NoError(t, x.ZeroGrad())
	assert.False(t, x.HasGrad())

	assert.ErrorIs(t, x.SetGrad([]float32{1}), tensor.ErrShapeMismatch)
	require.NoError(t, x.SetGrad([]float32{1, 2, 3}))

	g, err := b.Allocate(3)
	require.NoError(t, err)
	require.NoError(t, b.Write(g, []float32{10, 10, 10}))
	require.NoError(t, x.AccumulateGrad(g))

	got, err := x.GradData()
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 12, 13}, got)

	require.NoError(t, x.ZeroGrad())
	got, err = x.GradData()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, got)
}

func TestTensor_AccumulateGradIgnoredWithoutTracking(t *testing.T) {
	b := cpu.New()
	ctx := newContext(b)
	x, err := ctx.Ones(tensor.Shape{2})
	require.NoError(t, err)

	g, err := b.Allocate(2)
	require.NoError(t, err)
	require.NoError(t, x.AccumulateGrad(g))
	assert.False(t, x.HasGrad())
}

func TestTensor_AccumulateGradShapeMismatch(t *testing.T) {
	b := cpu.New()
	ctx := newContext(b)
	x, err := ctx.Ones(tensor.Shape{2}, tensor.RequiresGrad(true))
	require.NoError(t, err)

	g, err := b.Allocate(3)
	require.NoError(t, err)
	assert.ErrorIs(t, x.AccumulateGrad(g), tensor.ErrShapeMismatch)
}

func TestTensor_ReleaseFreesBuffers(t *testing.T) {
	b := cpu.New()
	ctx := newContext(b)
	x, err := ctx.Ones(tensor.Shape{4}, tensor.RequiresGrad(true))
	require.NoError(t, err)
	require.NoError(t, x.SetGrad([]float32{1, 1, 1, 1}))
	assert.Equal(t, int64(32), b.MemoryInUse())

	x.Release()
	x.Release()
	assert.Equal(t, int64(0), b.MemoryInUse())

	_, err = x.Data()
	assert.ErrorIs(t, err, tensor.ErrReleased)
}

func TestTensor_DetachSharesStorage(t *testing.T) {
	b := cpu.New()
	ctx := newContext(b)
	x, err := ctx.FromSlice([]float32{1, 2}, tensor.Shape{2}, tensor.RequiresGrad(true))
	require.NoError(t, err)

	d := x.Detach()
	assert.False(t, d.RequiresGrad())
	assert.Equal(t, int64(8), b.MemoryInUse())

	// Writes through x are visible in d.
	buf, err := x.Buffer()
	require.NoError(t, err)
	require.NoError(t, b.Write(buf, []float32{5, 6}))
	got, err := d.Data()
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 6}, got)

	// Storage is freed only after the last reference goes.
	x.Release()
	assert.Equal(t, int64(8), b.MemoryInUse())
	d.Release()
	assert.Equal(t, int64(0), b.MemoryInUse())
}

func TestTensor_CleanupOnUnreachable(t *testing.T) {
	b := cpu.New()
	ctx := newContext(b)
	func() {
		_, err := ctx.Ones(tensor.Shape{1024})
		require.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return b.MemoryInUse() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestFromBuffer(t *testing.T) {
	b := cpu.New()
	buf, err := b.Allocate(4)
	require.NoError(t, err)

	_, err = tensor.FromBuffer(b, tensor.Shape{3}, buf, false, nil)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	x, err := tensor.FromBuffer(b, tensor.Shape{2, 2}, buf, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, x.NumElements())
}

func TestTensor_SetGradRequiresTracking(t *testing.T) {
	b := cpu.New()
	ctx := newContext(b)
	x, err := ctx.Ones(tensor.Shape{2})
	require.NoError(t, err)
	before := b.MemoryInUse()

	assert.ErrorIs(t, x.SetGrad([]float32{1, 1}), tensor.ErrMissingGradient)
	assert.False(t, x.HasGrad())
	assert.Equal(t, before, b.MemoryInUse())
}

func TestTensor_DataWhileCollecting(t *testing.T) {
	ctx := newContext(cpu.New())

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
		x, err := ctx.Full(tensor.Shape{64}, 3)
		require.NoError(t, err)
		data, err := x.Data()
		require.NoError(t, err)
		require.Len(t, data, 64)
		require.Equal(t, float32(3), data[63])
	}
}
