package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferArithmetic handles Add, Sub, Mul, Div and Pow: two numeric inputs of
// one element type, multidirectional broadcast, pointwise fold when constant.
func inferArithmetic(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	a, b := inputs[0], inputs[1]
	dt := a.DataType
	if !dt.IsNumeric() || b.DataType != dt {
		return nil, fmt.Errorf("%w: %s and %s for %s",
			op.ErrTypeUnsupported, a.DataType, b.DataType, o.OpType.Name())
	}
	shape, err := multidirBroadcast(a.Shape, b.Shape)
	if err != nil {
		return nil, err
	}
	ans := tensor.New(dt, shape)
	if shouldCalculate(inputs, ans.Shape) {
		foldBinary(arithmeticKind(o.OpType), ans, inputs)
	}
	return []*tensor.Tensor{ans}, nil
}

func arithmeticKind(t op.OpType) binaryKind {
	switch {
	case t.Is("onnx::Add"):
		return binAdd
	case t.Is("onnx::Sub"):
		return binSub
	case t.Is("onnx::Mul"):
		return binMul
	case t.Is("onnx::Div"):
		return binDiv
	case t.Is("onnx::Pow"):
		return binPow
	default:
		panic("onnx: not an arithmetic operator")
	}
}

// inferLogic handles And, Or and Xor over boolean inputs.
func inferLogic(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	a, b := inputs[0], inputs[1]
	if !a.DataType.IsBool() || !b.DataType.IsBool() {
		return nil, fmt.Errorf("%w: %s and %s for %s",
			op.ErrTypeUnsupported, a.DataType, b.DataType, o.OpType.Name())
	}
	shape, err := multidirBroadcast(a.Shape, b.Shape)
	if err != nil {
		return nil, err
	}
	ans := tensor.New(tensor.Bool, shape)
	if shouldCalculate(inputs, ans.Shape) {
		foldBinary(logicKind(o.OpType), ans, inputs)
	}
	return []*tensor.Tensor{ans}, nil
}

func logicKind(t op.OpType) binaryKind {
	switch {
	case t.Is("onnx::And"):
		return binAnd
	case t.Is("onnx::Or"):
		return binOr
	case t.Is("onnx::Xor"):
		return binXor
	default:
		panic("onnx: not a logic operator")
	}
}
