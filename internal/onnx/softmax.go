package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferSoftmax: shape and type pass through; the axis attribute is
// validated against the rank. Softmax is a runtime kernel, not a fold.
func inferSoftmax(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 1); err != nil {
		return nil, err
	}
	data := inputs[0]
	if !data.DataType.IsFloat() {
		return nil, fmt.Errorf("%w: %s for Softmax", op.ErrTypeUnsupported, data.DataType)
	}
	axis, err := attrInt(o, "axis", -1)
	if err != nil {
		return nil, err
	}
	if _, err := normalizeAxis(axis, data.Rank()); err != nil {
		return nil, err
	}
	return []*tensor.Tensor{tensor.New(data.DataType, data.Shape.Clone())}, nil
}
