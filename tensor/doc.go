// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides float32 tensors with optional gradient tracking for
// the gradcore autodiff engine.
//
// # Overview
//
// A Context owns one backend per device and a seeded random generator. Every
// factory places its tensor on a device once, at creation:
//   - Host: pure Go kernels (always available)
//   - Accelerator: WebGPU compute shaders (when an adapter is present)
//
// Requesting a device with no backend fails with ErrUnsupportedDevice; nothing
// silently falls back to the host.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gradcore/autodiff"
//	    "github.com/born-ml/gradcore/tensor"
//	)
//
//	func main() {
//	    ctx := tensor.NewContext(tensor.DefaultConfig())
//
//	    x, _ := ctx.Ones(tensor.Shape{2, 2}, tensor.RequiresGrad(true))
//	    sq, _ := autodiff.Square(x)
//	    y, _ := autodiff.Sum(sq)
//
//	    _ = autodiff.Backward(y)
//	    grad, _ := x.GradData() // [2 2 2 2]
//	}
//
// # Memory
//
// Buffers are reference counted. Release frees a tensor's buffers eagerly;
// otherwise they are returned to the backend once the tensor is unreachable.
package tensor
