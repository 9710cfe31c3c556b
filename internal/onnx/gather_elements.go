package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferGatherElements: indices has the data's rank and the output takes the
// indices' shape; each element picks along the axis.
func inferGatherElements(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	data, indices := inputs[0], inputs[1]
	if indices.DataType != tensor.I32 && indices.DataType != tensor.I64 {
		return nil, fmt.Errorf("%w: %s indices for GatherElements",
			op.ErrTypeUnsupported, indices.DataType)
	}
	if data.Rank() != indices.Rank() || data.Rank() == 0 {
		return nil, fmt.Errorf("%w: GatherElements ranks %d and %d",
			op.ErrShapeMismatch, data.Rank(), indices.Rank())
	}
	axisAttr, err := attrInt(o, "axis", 0)
	if err != nil {
		return nil, err
	}
	axis, err := normalizeAxis(axisAttr, data.Rank())
	if err != nil {
		return nil, err
	}

	ans := tensor.New(data.DataType, indices.Shape.Clone())
	if shouldCalculate(inputs, ans.Shape) {
		foldGatherElements(ans, data, indices, axis)
	}
	return []*tensor.Tensor{ans}, nil
}

func foldGatherElements(ans, data, indices *tensor.Tensor, axis int) {
	dataDims, ok := data.Shape.Values()
	if !ok {
		return
	}
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	outDims, _ := ans.Shape.Values()
	dataStrides := strides(dataDims)
	eleSize := int64(data.DataType.Size())
	n, _ := ans.ElementsSize()
	src := data.Data()

	pos := make([]int64, len(outDims))
	for i := int64(0); i < n; i++ {
		locateN(outDims, i, pos)
		k, _ := tensor.ReadInt(indices.DataType, indices.Data(), i)
		if k < 0 {
			k += dataDims[axis]
		}
		if k < 0 || k >= dataDims[axis] {
			ans.Free()
			return
		}
		var srcOff int64
		for j := range pos {
			if j == axis {
				srcOff += k * dataStrides[j]
			} else {
				srcOff += pos[j] * dataStrides[j]
			}
		}
		copy(dst[i*eleSize:(i+1)*eleSize], src[srcOff*eleSize:(srcOff+1)*eleSize])
	}
}
