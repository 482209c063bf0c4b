// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend exposes device capability queries and the backend
// conformance suite.
package backend

import (
	"github.com/born-ml/gradcore/internal/backend/conformance"
	"github.com/born-ml/gradcore/internal/backend/webgpu"
	"github.com/born-ml/gradcore/tensor"
)

// Report is the result of SelfTest.
type Report = conformance.Report

// Result is the outcome of one kernel check.
type Result = conformance.Result

// IsAcceleratorAvailable reports whether the accelerator device can be used.
// The probe runs once and never allocates tensor memory.
func IsAcceleratorAvailable() bool {
	return webgpu.IsAvailable()
}

// SelfTest runs the kernel conformance suite against b.
//
// Example:
//
//	report := backend.SelfTest(cpu.New())
//	if !report.Passed() {
//	    log.Fatal(report.Err())
//	}
func SelfTest(b tensor.Backend) Report {
	return conformance.Run(b)
}
