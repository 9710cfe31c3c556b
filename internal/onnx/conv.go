package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferConv: X is [N, C, spatial...], W is [M, C/group, kernel...], the
// optional bias is [M]. Output is [N, M, conv spatial...].
func inferConv(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) != 2 && len(inputs) != 3 {
		return nil, fmt.Errorf("%w: Conv takes 2 or 3 inputs, got %d",
			op.ErrShapeMismatch, len(inputs))
	}
	x, w := inputs[0], inputs[1]
	if !x.DataType.IsFloat() || w.DataType != x.DataType {
		return nil, fmt.Errorf("%w: %s and %s for Conv", op.ErrTypeUnsupported, x.DataType, w.DataType)
	}
	if x.Rank() != w.Rank() || x.Rank() < 3 {
		return nil, fmt.Errorf("%w: Conv ranks %d and %d", op.ErrShapeMismatch, x.Rank(), w.Rank())
	}
	group, err := attrInt(o, "group", 1)
	if err != nil {
		return nil, err
	}
	if group < 1 {
		return nil, fmt.Errorf("%w: Conv group %d", op.ErrShapeMismatch, group)
	}

	// Channel compatibility: C == group * W.shape[1] when both resolvable.
	if c, ok := x.Shape[1].Value(); ok {
		if wc, ok2 := w.Shape[1].Value(); ok2 && c != wc*group {
			return nil, fmt.Errorf("%w: Conv channels %d vs %d*%d", op.ErrShapeMismatch, c, wc, group)
		}
	}
	if len(inputs) == 3 {
		b := inputs[2]
		if b.Rank() != 1 || !b.Shape[0].Equal(w.Shape[0]) {
			return nil, fmt.Errorf("%w: Conv bias shape %s", op.ErrShapeMismatch, b.Shape.Format())
		}
	}

	spatial, err := requireValues(x.Shape[2:])
	if err != nil {
		return nil, err
	}
	kernel, err := requireValues(w.Shape[2:])
	if err != nil {
		return nil, err
	}
	if v, has, err := attrInts(o, "kernel_shape"); err != nil {
		return nil, err
	} else if has {
		for i := range v {
			if i < len(kernel) && v[i] != kernel[i] {
				return nil, fmt.Errorf("%w: kernel_shape disagrees with weights", op.ErrShapeMismatch)
			}
		}
	}
	strides, padHead, padTail, dilations, err := windowAttrs(o, spatial, kernel)
	if err != nil {
		return nil, err
	}

	output := make(tensor.Shape, 0, x.Rank())
	output = append(output, x.Shape[0], w.Shape[0])
	for i := range spatial {
		d, err := spatialOut(spatial[i], kernel[i], strides[i], padHead[i], padTail[i], dilations[i], false)
		if err != nil {
			return nil, err
		}
		output = append(output, tensor.DimOf(d))
	}
	return []*tensor.Tensor{tensor.New(x.DataType, output)}, nil
}

// inferBatchNormalization: X plus four [C] parameter tensors; shape passes
// through. Training mode produces extra outputs and is out of scope here.
func inferBatchNormalization(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 5); err != nil {
		return nil, err
	}
	x := inputs[0]
	if !x.DataType.IsFloat() {
		return nil, fmt.Errorf("%w: %s for BatchNormalization", op.ErrTypeUnsupported, x.DataType)
	}
	if x.Rank() < 2 {
		return nil, fmt.Errorf("%w: BatchNormalization input rank %d", op.ErrShapeMismatch, x.Rank())
	}
	if mode, err := attrInt(o, "training_mode", 0); err != nil {
		return nil, err
	} else if mode != 0 {
		return nil, fmt.Errorf("%w: BatchNormalization training mode", op.ErrTypeUnsupported)
	}
	for _, param := range inputs[1:] {
		if param.Rank() != 1 || !param.Shape[0].Equal(x.Shape[1]) {
			return nil, fmt.Errorf("%w: BatchNormalization parameter shape %s",
				op.ErrShapeMismatch, param.Shape.Format())
		}
	}
	return []*tensor.Tensor{tensor.New(x.DataType, x.Shape.Clone())}, nil
}
