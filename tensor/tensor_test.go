// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/gradcore/autodiff"
	"github.com/born-ml/gradcore/backend"
	"github.com/born-ml/gradcore/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContext_RegistersHost(t *testing.T) {
	ctx := tensor.NewContext(tensor.DefaultConfig())
	devices := ctx.Devices()
	require.NotEmpty(t, devices)
	assert.Equal(t, tensor.Host, devices[0])

	if !backend.IsAcceleratorAvailable() {
		_, err := ctx.Ones(tensor.Shape{2}, tensor.OnDevice(tensor.Accelerator))
		assert.ErrorIs(t, err, tensor.ErrUnsupportedDevice)
	}
}

func TestPublicAPI_SumOfSquares(t *testing.T) {
	ctx := tensor.NewContext(tensor.DefaultConfig())
	x, err := ctx.Ones(tensor.Shape{2, 2}, tensor.RequiresGrad(true))
	require.NoError(t, err)

	sq, err := autodiff.Square(x)
	require.NoError(t, err)
	y, err := autodiff.Sum(sq)
	require.NoError(t, err)

	v, err := y.Item()
	require.NoError(t, err)
	assert.Equal(t, float32(4), v)

	require.NoError(t, autodiff.Backward(y))
	g, err := x.GradData()
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2, 2, 2}, g)
}

func TestPublicAPI_Accelerator(t *testing.T) {
	if !backend.IsAcceleratorAvailable() {
		t.Skip("accelerator not available")
	}
	ctx := tensor.NewContext(tensor.DefaultConfig())
	x, err := ctx.Ones(tensor.Shape{2, 2}, tensor.OnDevice(tensor.Accelerator), tensor.RequiresGrad(true))
	require.NoError(t, err)

	sq, err := autodiff.Square(x)
	require.NoError(t, err)
	y, err := autodiff.Sum(sq)
	require.NoError(t, err)
	require.NoError(t, autodiff.Backward(y))

	g, err := x.GradData()
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2, 2, 2}, g)
}
