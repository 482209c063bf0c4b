// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package backend_test

import (
	"testing"

	"github.com/born-ml/gradcore/backend"
	"github.com/born-ml/gradcore/backend/cpu"
	"github.com/born-ml/gradcore/backend/webgpu"
	"github.com/stretchr/testify/assert"
)

func TestSelfTest_CPU(t *testing.T) {
	report := backend.SelfTest(cpu.New())
	assert.True(t, report.Passed(), report.String())
}

func TestIsAcceleratorAvailable_Stable(t *testing.T) {
	first := backend.IsAcceleratorAvailable()
	assert.Equal(t, first, backend.IsAcceleratorAvailable())
	assert.Equal(t, first, webgpu.IsAvailable())
}
