package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferSplit partitions the input along an axis. Sizes come from the
// optional second input, the split attribute, or equal division by
// num_outputs.
func inferSplit(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) != 1 && len(inputs) != 2 {
		return nil, fmt.Errorf("%w: Split takes 1 or 2 inputs, got %d",
			op.ErrShapeMismatch, len(inputs))
	}
	data := inputs[0]
	axisAttr, err := attrInt(o, "axis", 0)
	if err != nil {
		return nil, err
	}
	axis, err := normalizeAxis(axisAttr, data.Rank())
	if err != nil {
		return nil, err
	}
	dim, ok := data.Shape[axis].Value()
	if !ok {
		return nil, &op.UnknownVariableError{Name: data.Shape[axis].Variable().Name}
	}

	var sizes []int64
	switch {
	case len(inputs) == 2:
		if sizes, err = intsFromTensor(inputs[1]); err != nil {
			return nil, err
		}
	default:
		if v, has, err := attrInts(o, "split"); err != nil {
			return nil, err
		} else if has {
			sizes = v
		} else {
			num, err := attrInt(o, "num_outputs", 0)
			if err != nil {
				return nil, err
			}
			if num <= 0 {
				return nil, fmt.Errorf("%w: split sizes or num_outputs on Split", op.ErrAttributeMissing)
			}
			chunk := (dim + num - 1) / num
			sizes = make([]int64, num)
			rest := dim
			for i := range sizes {
				sizes[i] = min(chunk, rest)
				rest -= sizes[i]
			}
		}
	}

	total := int64(0)
	for _, s := range sizes {
		if s < 0 {
			return nil, fmt.Errorf("%w: negative split size", op.ErrShapeMismatch)
		}
		total += s
	}
	if total != dim {
		return nil, fmt.Errorf("%w: split sizes sum %d over dimension %d",
			op.ErrShapeMismatch, total, dim)
	}

	outputs := make([]*tensor.Tensor, len(sizes))
	for i, s := range sizes {
		shape := data.Shape.Clone()
		shape[axis] = tensor.DimOf(s)
		outputs[i] = tensor.New(data.DataType, shape)
	}
	if shouldCalculate([]*tensor.Tensor{data}, data.Shape) {
		foldSplit(outputs, data, sizes, axis)
	}
	return outputs, nil
}

func foldSplit(outputs []*tensor.Tensor, data *tensor.Tensor, sizes []int64, axis int) {
	dims, ok := data.Shape.Values()
	if !ok {
		return
	}
	eleSize := int64(data.DataType.Size())
	inner := int64(1)
	for _, d := range dims[axis+1:] {
		inner *= d
	}
	outer := int64(1)
	for _, d := range dims[:axis] {
		outer *= d
	}
	srcRow := dims[axis] * inner * eleSize
	src := data.Data()

	var used int64
	for i, out := range outputs {
		dst, err := out.Malloc()
		if err != nil {
			return
		}
		dstRow := sizes[i] * inner * eleSize
		for r := int64(0); r < outer; r++ {
			copy(dst[r*dstRow:(r+1)*dstRow], src[r*srcRow+used:r*srcRow+used+dstRow])
		}
		used += dstRow
	}
}
