package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferCompare handles Equal, Greater, GreaterOrEqual, Less and LessOrEqual:
// broadcasting comparison producing a Bool tensor.
func inferCompare(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	a, b := inputs[0], inputs[1]
	if a.DataType != b.DataType {
		return nil, fmt.Errorf("%w: %s vs %s for %s",
			op.ErrTypeUnsupported, a.DataType, b.DataType, o.OpType.Name())
	}
	shape, err := multidirBroadcast(a.Shape, b.Shape)
	if err != nil {
		return nil, err
	}
	ans := tensor.New(tensor.Bool, shape)
	if shouldCalculate(inputs, ans.Shape) {
		foldCompare(compareKindOf(o.OpType), ans, inputs)
	}
	return []*tensor.Tensor{ans}, nil
}

func compareKindOf(t op.OpType) compareKind {
	switch {
	case t.Is("onnx::Equal"):
		return cmpEqual
	case t.Is("onnx::Greater"):
		return cmpGreater
	case t.Is("onnx::GreaterOrEqual"):
		return cmpGreaterOrEqual
	case t.Is("onnx::Less"):
		return cmpLess
	case t.Is("onnx::LessOrEqual"):
		return cmpLessOrEqual
	default:
		panic("onnx: not a comparison operator")
	}
}
