package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/broadcast"
	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferWhere selects pointwise between x and y by a Bool condition; all
// three inputs broadcast together.
func inferWhere(_ *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 3); err != nil {
		return nil, err
	}
	cond, x, y := inputs[0], inputs[1], inputs[2]
	if !cond.DataType.IsBool() {
		return nil, fmt.Errorf("%w: Where condition is %s", op.ErrTypeUnsupported, cond.DataType)
	}
	if x.DataType != y.DataType {
		return nil, fmt.Errorf("%w: Where branches are %s and %s",
			op.ErrTypeUnsupported, x.DataType, y.DataType)
	}
	shape, err := multidirBroadcast(cond.Shape, x.Shape, y.Shape)
	if err != nil {
		return nil, err
	}

	ans := tensor.New(x.DataType, shape)
	if shouldCalculate(inputs, ans.Shape) {
		foldWhere(ans, cond, x, y)
	}
	return []*tensor.Tensor{ans}, nil
}

func foldWhere(ans, cond, x, y *tensor.Tensor) {
	condDims, ok1 := cond.Shape.Values()
	xDims, ok2 := x.Shape.Values()
	yDims, ok3 := y.Shape.Values()
	if !ok1 || !ok2 || !ok3 {
		return
	}
	plan, err := broadcast.New(condDims, xDims, yDims)
	if err != nil {
		return
	}
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	n, _ := ans.ElementsSize()
	eleSize := int64(ans.DataType.Size())
	loc := make([]int64, 3)
	for k := int64(0); k < n; k++ {
		plan.Locate(k, loc)
		src := y.Data()[loc[2]*eleSize:]
		if tensor.ReadBool(cond.Data(), loc[0]) {
			src = x.Data()[loc[1]*eleSize:]
		}
		copy(dst[k*eleSize:(k+1)*eleSize], src[:eleSize])
	}
}
