// Copyright 2025 The Loom Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernel is the public API for kernel lowering: hardware targets,
// per-operator collectors and the opaque kernel boxes they enumerate.
package kernel

import (
	internalkernel "github.com/loom-ml/loom/internal/kernel"
)

// Target identifies the hardware a kernel candidate runs on.
type Target = internalkernel.Target

// Supported targets.
const (
	CPU       Target = internalkernel.CPU
	NvidiaGPU Target = internalkernel.NvidiaGPU
	WebGPU    Target = internalkernel.WebGPU
)

// Resources carries runtime-owned state handed to lowered routines.
type Resources = internalkernel.Resources

// Routine is a lowered kernel invocation.
type Routine = internalkernel.Routine

// Box is one candidate kernel.
type Box = internalkernel.Box

// Collector enumerates kernel candidates for one operator on one target.
type Collector = internalkernel.Collector
