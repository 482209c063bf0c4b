//go:build !windows

package webgpu

import (
	"testing"

	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/stretchr/testify/assert"
)

func TestStub_Unavailable(t *testing.T) {
	assert.False(t, IsAvailable())

	b, err := New()
	assert.Nil(t, b)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedDevice)
}
