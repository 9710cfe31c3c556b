// Copyright 2025 The Loom Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public API for Loom's symbolic tensor core:
// element types, dimension expressions, shapes and the tensor record that
// graph edges carry.
//
// Example:
//
//	n := tensor.DimVar("N")
//	x := tensor.New(tensor.F32, tensor.Shape{n, tensor.DimOf(3)})
package tensor

import (
	"github.com/loom-ml/loom/internal/tensor"
)

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Element type constants.
const (
	F32        DataType = tensor.F32
	U8         DataType = tensor.U8
	I8         DataType = tensor.I8
	U16        DataType = tensor.U16
	I16        DataType = tensor.I16
	I32        DataType = tensor.I32
	I64        DataType = tensor.I64
	Bool       DataType = tensor.Bool
	FP16       DataType = tensor.FP16
	F64        DataType = tensor.F64
	U32        DataType = tensor.U32
	U64        DataType = tensor.U64
	Complex64  DataType = tensor.Complex64
	Complex128 DataType = tensor.Complex128
	BF16       DataType = tensor.BF16
)

// ParseDataType maps a persisted wire code to its DataType.
func ParseDataType(code uint8) (DataType, bool) { return tensor.ParseDataType(code) }

// DimVariable is a named dimension slot owned by a graph.
type DimVariable = tensor.DimVariable

// DimExpr is one dimension of a shape: a constant or a variable reference.
type DimExpr = tensor.DimExpr

// DimOf returns a constant dimension.
func DimOf(value int64) DimExpr { return tensor.DimOf(value) }

// DimVar returns a dimension referencing a fresh variable.
func DimVar(name string) DimExpr { return tensor.DimVar(name) }

// DimOfVar returns a dimension referencing an existing variable.
func DimOfVar(v *DimVariable) DimExpr { return tensor.DimOfVar(v) }

// Shape is an ordered sequence of dimension expressions.
type Shape = tensor.Shape

// ShapeOf builds a fully constant shape.
func ShapeOf(dims ...int64) Shape { return tensor.ShapeOf(dims...) }

// Tensor is the record carried by a graph edge.
type Tensor = tensor.Tensor

// New creates a data-less tensor.
func New(dt DataType, shape Shape) *Tensor { return tensor.New(dt, shape) }

// NewData creates a tensor owning the given buffer.
func NewData(dt DataType, shape Shape, data []byte) (*Tensor, error) {
	return tensor.NewData(dt, shape, data)
}
