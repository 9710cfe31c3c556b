// Copyright 2025 The Loom Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package op is the public API for the operator model: tagged attribute
// values, the interned operator-type registry, and the Operator record.
package op

import (
	internalop "github.com/loom-ml/loom/internal/op"
)

// Attribute is a tagged union over the eight attribute payload kinds.
type Attribute = internalop.Attribute

// Attribute constructors.
var (
	AttrInt     = internalop.AttrInt
	AttrInts    = internalop.AttrInts
	AttrFloat   = internalop.AttrFloat
	AttrFloats  = internalop.AttrFloats
	AttrString  = internalop.AttrString
	AttrStrings = internalop.AttrStrings
	AttrTensor  = internalop.AttrTensor
	AttrTensors = internalop.AttrTensors
)

// OpType is a stable integer handle into the operator table.
type OpType = internalop.OpType

// Operator is an operator kind plus its attribute bindings.
type Operator = internalop.Operator

// NewOperator builds an operator for an interned kind.
func NewOperator(t OpType, attrs map[string]Attribute) *Operator {
	return internalop.NewOperator(t, attrs)
}

// Register inserts an operator kind into the known list.
var Register = internalop.Register

// Parse interns a registered name into a stable OpType.
var Parse = internalop.Parse

// MustParse is Parse for names known to be registered.
var MustParse = internalop.MustParse

// Inference error sentinels.
var (
	ErrShapeMismatch    = internalop.ErrShapeMismatch
	ErrTypeUnsupported  = internalop.ErrTypeUnsupported
	ErrAttributeMissing = internalop.ErrAttributeMissing
	ErrOutOfRange       = internalop.ErrOutOfRange
	ErrUnreachable      = internalop.ErrUnreachable
)

// UnknownVariableError reports a shape computation blocked on an unbound
// dimension variable.
type UnknownVariableError = internalop.UnknownVariableError
