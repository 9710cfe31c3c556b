// Copyright 2025 The Loom Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx installs the onnx:: operator catalog.
//
// Call Register once during initialization, before parsing operator names:
//
//	if err := onnx.Register(); err != nil {
//	    log.Fatal(err)
//	}
//	add := op.MustParse("onnx::Add")
package onnx

import (
	internalonnx "github.com/loom-ml/loom/internal/onnx"
)

// Register installs the onnx:: operator catalog into the process-wide
// registry. It is idempotent.
func Register() error { return internalonnx.Register() }
