package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// Pooling and convolution share the sliding-window arithmetic. Spatial
// dimensions must be resolvable; batch and channel may stay symbolic.

// spatialOut computes one output extent of a sliding window.
func spatialOut(in, kernel, stride, padHead, padTail, dilation int64, ceilMode bool) (int64, error) {
	effective := (kernel-1)*dilation + 1
	numer := in + padHead + padTail - effective
	if numer < 0 {
		return 0, fmt.Errorf("%w: window %d exceeds padded input %d",
			op.ErrShapeMismatch, effective, in+padHead+padTail)
	}
	if ceilMode {
		return (numer+stride-1)/stride + 1, nil
	}
	return numer/stride + 1, nil
}

// windowAttrs resolves kernel_shape, strides, pads and dilations against the
// number of spatial axes, applying auto_pad when requested.
func windowAttrs(o *op.Operator, spatial []int64, kernel []int64) (strides, padHead, padTail, dilations []int64, err error) {
	n := len(spatial)
	strides = make([]int64, n)
	dilations = make([]int64, n)
	for i := range strides {
		strides[i] = 1
		dilations[i] = 1
	}
	if v, has, err := attrInts(o, "strides"); err != nil {
		return nil, nil, nil, nil, err
	} else if has {
		if len(v) != n {
			return nil, nil, nil, nil, fmt.Errorf("%w: strides length %d for %d spatial axes",
				op.ErrShapeMismatch, len(v), n)
		}
		strides = v
	}
	if v, has, err := attrInts(o, "dilations"); err != nil {
		return nil, nil, nil, nil, err
	} else if has {
		if len(v) != n {
			return nil, nil, nil, nil, fmt.Errorf("%w: dilations length %d for %d spatial axes",
				op.ErrShapeMismatch, len(v), n)
		}
		dilations = v
	}

	padHead = make([]int64, n)
	padTail = make([]int64, n)
	autoPad, err := attrString(o, "auto_pad", "NOTSET")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	switch autoPad {
	case "NOTSET":
		if v, has, err := attrInts(o, "pads"); err != nil {
			return nil, nil, nil, nil, err
		} else if has {
			if len(v) != 2*n {
				return nil, nil, nil, nil, fmt.Errorf("%w: pads length %d for %d spatial axes",
					op.ErrShapeMismatch, len(v), n)
			}
			copy(padHead, v[:n])
			copy(padTail, v[n:])
		}
	case "VALID":
	case "SAME_UPPER", "SAME_LOWER":
		for i := range spatial {
			outDim := (spatial[i] + strides[i] - 1) / strides[i]
			effective := (kernel[i]-1)*dilations[i] + 1
			total := max((outDim-1)*strides[i]+effective-spatial[i], 0)
			if autoPad == "SAME_UPPER" {
				padHead[i] = total / 2
				padTail[i] = total - total/2
			} else {
				padTail[i] = total / 2
				padHead[i] = total - total/2
			}
		}
	default:
		return nil, nil, nil, nil, fmt.Errorf("%w: auto_pad %q", op.ErrTypeUnsupported, autoPad)
	}
	return strides, padHead, padTail, dilations, nil
}

// inferPool handles AveragePool, LpPool and MaxPool over [N, C, spatial...].
func inferPool(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 1); err != nil {
		return nil, err
	}
	data := inputs[0]
	if !data.DataType.IsFloat() {
		return nil, fmt.Errorf("%w: %s for %s", op.ErrTypeUnsupported, data.DataType, o.OpType.Name())
	}
	if data.Rank() < 3 {
		return nil, fmt.Errorf("%w: %s input rank %d", op.ErrShapeMismatch, o.OpType.Name(), data.Rank())
	}
	attr, err := o.Attribute("kernel_shape")
	if err != nil {
		return nil, err
	}
	kernel, err := attr.Ints()
	if err != nil {
		return nil, err
	}
	n := data.Rank() - 2
	if len(kernel) != n {
		return nil, fmt.Errorf("%w: kernel_shape length %d for %d spatial axes",
			op.ErrShapeMismatch, len(kernel), n)
	}
	spatial, err := requireValues(data.Shape[2:])
	if err != nil {
		return nil, err
	}
	strides, padHead, padTail, dilations, err := windowAttrs(o, spatial, kernel)
	if err != nil {
		return nil, err
	}
	ceilMode, err := attrInt(o, "ceil_mode", 0)
	if err != nil {
		return nil, err
	}

	output := make(tensor.Shape, 0, data.Rank())
	output = append(output, data.Shape[0], data.Shape[1])
	for i := range spatial {
		d, err := spatialOut(spatial[i], kernel[i], strides[i], padHead[i], padTail[i], dilations[i], ceilMode != 0)
		if err != nil {
			return nil, err
		}
		output = append(output, tensor.DimOf(d))
	}
	return []*tensor.Tensor{tensor.New(data.DataType, output)}, nil
}

// inferGlobalPool collapses every spatial dimension to 1.
func inferGlobalPool(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 1); err != nil {
		return nil, err
	}
	data := inputs[0]
	if !data.DataType.IsFloat() {
		return nil, fmt.Errorf("%w: %s for %s", op.ErrTypeUnsupported, data.DataType, o.OpType.Name())
	}
	if data.Rank() < 3 {
		return nil, fmt.Errorf("%w: %s input rank %d", op.ErrShapeMismatch, o.OpType.Name(), data.Rank())
	}
	output := make(tensor.Shape, 0, data.Rank())
	output = append(output, data.Shape[0], data.Shape[1])
	for i := 2; i < data.Rank(); i++ {
		output = append(output, tensor.DimOf(1))
	}
	return []*tensor.Tensor{tensor.New(data.DataType, output)}, nil
}
