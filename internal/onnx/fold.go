package onnx

import (
	"math"

	"github.com/loom-ml/loom/internal/broadcast"
	"github.com/loom-ml/loom/internal/tensor"
)

// Element-wise folding over a broadcast plan. Folds degrade gracefully: a
// false return means the caller keeps the shape-only output.

type binaryKind uint8

const (
	binAdd binaryKind = iota
	binSub
	binMul
	binDiv
	binPow
	binAnd
	binOr
	binXor
	binMax
	binMin
)

// foldBinary computes out = a <kind> b pointwise over the broadcast plan.
// The output buffer is allocated here; on failure the tensor stays data-less.
func foldBinary(kind binaryKind, out *tensor.Tensor, inputs []*tensor.Tensor) bool {
	dims := make([][]int64, len(inputs))
	for i, in := range inputs {
		d, ok := in.Shape.Values()
		if !ok {
			return false
		}
		dims[i] = d
	}
	plan, err := broadcast.New(dims...)
	if err != nil {
		return false
	}
	dst, err := out.Malloc()
	if err != nil {
		return false
	}
	n, _ := out.ElementsSize()
	dt := out.DataType
	loc := make([]int64, len(inputs))

	for k := int64(0); k < n; k++ {
		plan.Locate(k, loc)
		if !applyBinary(kind, dt, inputs, loc, dst, k) {
			out.Free()
			return false
		}
	}
	return true
}

// applyBinary dispatches element access by what the concrete element type
// decodes as: float, signed integer, unsigned integer, or bool. Both inputs
// share dt, so one probe on the first operand settles the representation.
func applyBinary(kind binaryKind, dt tensor.DataType, inputs []*tensor.Tensor, loc []int64, dst []byte, k int64) bool {
	if dt.IsFloat() {
		a, _ := tensor.ReadFloat(inputs[0].DataType, inputs[0].Data(), loc[0])
		b, _ := tensor.ReadFloat(inputs[1].DataType, inputs[1].Data(), loc[1])
		var v float64
		switch kind {
		case binAdd:
			v = a + b
		case binSub:
			v = a - b
		case binMul:
			v = a * b
		case binDiv:
			v = a / b
		case binPow:
			v = math.Pow(a, b)
		case binMax:
			v = math.Max(a, b)
		case binMin:
			v = math.Min(a, b)
		default:
			return false
		}
		return tensor.WriteFloat(dt, dst, k, v)
	}

	if a, ok := tensor.ReadInt(dt, inputs[0].Data(), loc[0]); ok {
		b, _ := tensor.ReadInt(dt, inputs[1].Data(), loc[1])
		var v int64
		switch kind {
		case binAdd:
			v = a + b
		case binSub:
			v = a - b
		case binMul:
			v = a * b
		case binDiv:
			if b == 0 || (a == math.MinInt64 && b == -1) {
				return false
			}
			v = a / b
		case binPow:
			v = int64(math.Pow(float64(a), float64(b)))
		case binMax:
			v = max(a, b)
		case binMin:
			v = min(a, b)
		default:
			return false
		}
		return tensor.WriteInt(dt, dst, k, v)
	}

	if a, ok := tensor.ReadUint(dt, inputs[0].Data(), loc[0]); ok {
		b, _ := tensor.ReadUint(dt, inputs[1].Data(), loc[1])
		var v uint64
		switch kind {
		case binAdd:
			v = a + b
		case binSub:
			v = a - b
		case binMul:
			v = a * b
		case binDiv:
			if b == 0 {
				return false
			}
			v = a / b
		case binPow:
			v = uint64(math.Pow(float64(a), float64(b)))
		case binMax:
			v = max(a, b)
		case binMin:
			v = min(a, b)
		default:
			return false
		}
		return tensor.WriteUint(dt, dst, k, v)
	}

	if dt.IsBool() {
		a := tensor.ReadBool(inputs[0].Data(), loc[0])
		b := tensor.ReadBool(inputs[1].Data(), loc[1])
		var v bool
		switch kind {
		case binAnd:
			v = a && b
		case binOr:
			v = a || b
		case binXor:
			v = a != b
		default:
			return false
		}
		tensor.WriteBool(dst, k, v)
		return true
	}
	return false
}

type compareKind uint8

const (
	cmpEqual compareKind = iota
	cmpGreater
	cmpGreaterOrEqual
	cmpLess
	cmpLessOrEqual
)

// foldCompare computes the Bool output of a comparison pointwise.
func foldCompare(kind compareKind, out *tensor.Tensor, inputs []*tensor.Tensor) bool {
	dims := make([][]int64, len(inputs))
	for i, in := range inputs {
		d, ok := in.Shape.Values()
		if !ok {
			return false
		}
		dims[i] = d
	}
	plan, err := broadcast.New(dims...)
	if err != nil {
		return false
	}
	dst, err := out.Malloc()
	if err != nil {
		return false
	}
	n, _ := out.ElementsSize()
	loc := make([]int64, len(inputs))
	dt := inputs[0].DataType

	for k := int64(0); k < n; k++ {
		plan.Locate(k, loc)
		a, okA := tensor.ReadScalar(dt, inputs[0].Data(), loc[0])
		b, okB := tensor.ReadScalar(dt, inputs[1].Data(), loc[1])
		if !okA || !okB {
			out.Free()
			return false
		}
		var v bool
		switch kind {
		case cmpEqual:
			v = a == b
		case cmpGreater:
			v = a > b
		case cmpGreaterOrEqual:
			v = a >= b
		case cmpLess:
			v = a < b
		case cmpLessOrEqual:
			v = a <= b
		}
		tensor.WriteBool(dst, k, v)
	}
	return true
}
