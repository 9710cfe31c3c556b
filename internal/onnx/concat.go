package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferConcat joins two or more tensors along one axis. Non-axis dimensions
// and the element type must agree; the axis dimension is the sum.
func inferConcat(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("%w: Concat needs at least 2 inputs, got %d",
			op.ErrShapeMismatch, len(inputs))
	}
	first := inputs[0]
	rank := first.Rank()
	attr, err := o.Attribute("axis")
	if err != nil {
		return nil, err
	}
	axisAttr, err := attr.Int()
	if err != nil {
		return nil, err
	}
	axis, err := normalizeAxis(axisAttr, rank)
	if err != nil {
		return nil, err
	}

	sum := int64(0)
	for _, in := range inputs {
		if in.DataType != first.DataType {
			return nil, fmt.Errorf("%w: mixed element types in Concat", op.ErrTypeUnsupported)
		}
		if in.Rank() != rank {
			return nil, fmt.Errorf("%w: mixed ranks in Concat", op.ErrShapeMismatch)
		}
		for j := range in.Shape {
			if j == axis {
				continue
			}
			if !in.Shape[j].Equal(first.Shape[j]) {
				return nil, fmt.Errorf("%w: Concat dimension %d differs", op.ErrShapeMismatch, j)
			}
		}
		v, ok := in.Shape[axis].Value()
		if !ok {
			return nil, &op.UnknownVariableError{Name: in.Shape[axis].Variable().Name}
		}
		sum += v
	}

	output := first.Shape.Clone()
	output[axis] = tensor.DimOf(sum)
	ans := tensor.New(first.DataType, output)
	if shouldCalculate(inputs, ans.Shape) {
		foldConcat(ans, inputs, axis)
	}
	return []*tensor.Tensor{ans}, nil
}

// foldConcat copies input blocks: for each input, contiguous runs of
// (axisDim * innerSize) elements repeat outerSize times.
func foldConcat(ans *tensor.Tensor, inputs []*tensor.Tensor, axis int) {
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	outDims, _ := ans.Shape.Values()
	eleSize := int64(ans.DataType.Size())

	inner := int64(1)
	for _, d := range outDims[axis+1:] {
		inner *= d
	}
	outer := int64(1)
	for _, d := range outDims[:axis] {
		outer *= d
	}

	dstRow := outDims[axis] * inner * eleSize
	var used int64
	for _, in := range inputs {
		dims, _ := in.Shape.Values()
		srcRow := dims[axis] * inner * eleSize
		src := in.Data()
		for r := int64(0); r < outer; r++ {
			copy(dst[r*dstRow+used:], src[r*srcRow:(r+1)*srcRow])
		}
		used += srcRow
	}
}
