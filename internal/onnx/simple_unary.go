package onnx

import (
	"fmt"
	"math"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// The simple unary family: shape and type pass through unchanged; folding
// applies the pointwise function when the input is constant.

type unarySpec struct {
	// allowed reports whether the element type is legal for this operator.
	allowed func(dt tensor.DataType) bool
	// fn computes one element in float64 space; it is nil for Not and
	// Identity, which inferSimpleUnary folds through their own cases.
	fn func(x float64) float64
}

func ieee754(dt tensor.DataType) bool { return dt.IsIeee754() }
func numeric(dt tensor.DataType) bool { return dt.IsNumeric() }

// signedNumeric admits every numeric type that can represent a negated
// value: all signed integers, including I8 and I16, plus the floats.
// DataType.IsSigned classifies byte decoding, not negatability, and leaves
// the narrow integer types out.
func signedNumeric(dt tensor.DataType) bool {
	switch dt {
	case tensor.I8, tensor.I16, tensor.I32, tensor.I64:
		return true
	default:
		return dt.IsFloat()
	}
}

var unarySpecs = map[string]unarySpec{
	"onnx::Abs":      {allowed: numeric, fn: math.Abs},
	"onnx::Acos":     {allowed: ieee754, fn: math.Acos},
	"onnx::Acosh":    {allowed: ieee754, fn: math.Acosh},
	"onnx::Asin":     {allowed: ieee754, fn: math.Asin},
	"onnx::Asinh":    {allowed: ieee754, fn: math.Asinh},
	"onnx::Atan":     {allowed: ieee754, fn: math.Atan},
	"onnx::Atanh":    {allowed: ieee754, fn: math.Atanh},
	"onnx::Cos":      {allowed: ieee754, fn: math.Cos},
	"onnx::Cosh":     {allowed: ieee754, fn: math.Cosh},
	"onnx::Sin":      {allowed: ieee754, fn: math.Sin},
	"onnx::Sinh":     {allowed: ieee754, fn: math.Sinh},
	"onnx::Tan":      {allowed: ieee754, fn: math.Tan},
	"onnx::Tanh":     {allowed: ieee754, fn: math.Tanh},
	"onnx::Relu":     {allowed: numeric, fn: func(x float64) float64 { return math.Max(x, 0) }},
	"onnx::Sqrt":     {allowed: ieee754, fn: math.Sqrt},
	"onnx::Sigmoid":  {allowed: ieee754, fn: func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }},
	"onnx::Erf":      {allowed: ieee754, fn: math.Erf},
	"onnx::Log":      {allowed: ieee754, fn: math.Log},
	"onnx::Neg":      {allowed: signedNumeric, fn: func(x float64) float64 { return -x }},
	"onnx::Not":      {allowed: tensor.DataType.IsBool},
	"onnx::Identity": {allowed: func(tensor.DataType) bool { return true }},
}

func inferSimpleUnary(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 1); err != nil {
		return nil, err
	}
	name := o.OpType.Name()
	spec, ok := unarySpecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no unary rule", op.ErrUnreachable, name)
	}
	x := inputs[0]
	if !spec.allowed(x.DataType) {
		return nil, fmt.Errorf("%w: %s for %s", op.ErrTypeUnsupported, x.DataType, name)
	}

	ans := tensor.New(x.DataType, x.Shape.Clone())
	if !shouldCalculate(inputs, ans.Shape) {
		return []*tensor.Tensor{ans}, nil
	}

	switch name {
	case "onnx::Identity":
		ans.SetData(x.Data())
	case "onnx::Not":
		foldNot(ans, x)
	default:
		foldUnary(spec.fn, ans, x)
	}
	return []*tensor.Tensor{ans}, nil
}

func foldNot(out, in *tensor.Tensor) {
	dst, err := out.Malloc()
	if err != nil {
		return
	}
	n, _ := out.ElementsSize()
	for i := int64(0); i < n; i++ {
		tensor.WriteBool(dst, i, !tensor.ReadBool(in.Data(), i))
	}
}

// foldUnary evaluates fn pointwise. Integral inputs go through the widened
// scalar path, which keeps Abs, Neg and Relu exact for 64-bit magnitudes the
// float64 round trip preserves.
func foldUnary(fn func(float64) float64, out, in *tensor.Tensor) {
	dst, err := out.Malloc()
	if err != nil {
		return
	}
	n, _ := out.ElementsSize()
	dt := out.DataType
	for i := int64(0); i < n; i++ {
		x, ok := tensor.ReadScalar(dt, in.Data(), i)
		if !ok || !tensor.WriteScalar(dt, dst, i, fn(x)) {
			out.Free()
			return
		}
	}
}
