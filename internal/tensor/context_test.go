package tensor_test

import (
	"testing"

	"github.com/born-ml/gradcore/internal/backend/cpu"
	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Backends(t *testing.T) {
	host := cpu.New()
	ctx := tensor.NewContext(tensor.DefaultConfig(), host)

	b, err := ctx.Backend(tensor.Host)
	require.NoError(t, err)
	assert.Same(t, host, b)
	assert.Equal(t, []tensor.Device{tensor.Host}, ctx.Devices())

	_, err = ctx.Backend(tensor.Accelerator)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedDevice)

	replacement := cpu.New()
	ctx.Register(replacement)
	b, err = ctx.Backend(tensor.Host)
	require.NoError(t, err)
	assert.Same(t, replacement, b)
}

func TestContext_DefaultDevice(t *testing.T) {
	cfg := tensor.DefaultConfig()
	cfg.DefaultDevice = tensor.Accelerator
	ctx := tensor.NewContext(cfg, cpu.New())

	_, err := ctx.Ones(tensor.Shape{1})
	assert.ErrorIs(t, err, tensor.ErrUnsupportedDevice)

	x, err := ctx.Ones(tensor.Shape{1}, tensor.OnDevice(tensor.Host))
	require.NoError(t, err)
	assert.Equal(t, tensor.Host, x.Device())
}

func TestContext_Seed(t *testing.T) {
	cfg := tensor.DefaultConfig()
	cfg.Seed = 123
	ctx := tensor.NewContext(cfg, cpu.New())
	assert.Equal(t, uint64(123), ctx.Generator().CurrentSeed())
}

func TestParseDevice(t *testing.T) {
	tests := []struct {
		in   string
		want tensor.Device
	}{
		{"cpu", tensor.Host},
		{"host", tensor.Host},
		{"", tensor.Host},
		{"GPU", tensor.Accelerator},
		{"cuda", tensor.Accelerator},
		{"webgpu", tensor.Accelerator},
	}
	for _, tt := range tests {
		got, err := tensor.ParseDevice(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := tensor.ParseDevice("tpu")
	assert.ErrorIs(t, err, tensor.ErrUnsupportedDevice)
}

func TestShape(t *testing.T) {
	assert.Equal(t, 1, tensor.Shape{}.NumElements())
	assert.Equal(t, 0, tensor.Shape{3, 0}.NumElements())
	assert.Equal(t, 24, tensor.Shape{2, 3, 4}.NumElements())

	assert.True(t, tensor.Shape{}.IsScalar())
	assert.True(t, tensor.Shape{1, 1}.IsScalar())
	assert.False(t, tensor.Shape{2}.IsScalar())
	assert.False(t, tensor.Shape{0}.IsScalar())

	assert.NoError(t, tensor.Shape{0, 2}.Validate())
	assert.Error(t, tensor.Shape{2, -1}.Validate())

	assert.True(t, tensor.Shape{2, 3}.Equal(tensor.Shape{2, 3}))
	assert.False(t, tensor.Shape{2, 3}.Equal(tensor.Shape{3, 2}))
	assert.False(t, tensor.Shape{2}.Equal(tensor.Shape{2, 1}))
}

func TestOpKind_String(t *testing.T) {
	assert.Equal(t, "Square", tensor.OpSquare.String())
	assert.Equal(t, "Scale", tensor.OpScale.String())
	assert.Equal(t, "host", tensor.Host.String())
	assert.Equal(t, "accelerator", tensor.Accelerator.String())
}
