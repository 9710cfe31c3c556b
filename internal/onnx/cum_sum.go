package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferCumSum: running sum along the axis given by the scalar second input;
// shape and type pass through.
func inferCumSum(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	data := inputs[0]
	if !data.DataType.IsNumeric() {
		return nil, fmt.Errorf("%w: %s for CumSum", op.ErrTypeUnsupported, data.DataType)
	}
	axisT := inputs[1]
	if axisT.DataType != tensor.I32 && axisT.DataType != tensor.I64 {
		return nil, fmt.Errorf("%w: %s CumSum axis", op.ErrTypeUnsupported, axisT.DataType)
	}
	exclusive, err := attrInt(o, "exclusive", 0)
	if err != nil {
		return nil, err
	}
	reverse, err := attrInt(o, "reverse", 0)
	if err != nil {
		return nil, err
	}

	ans := tensor.New(data.DataType, data.Shape.Clone())
	if shouldCalculate(inputs, ans.Shape) {
		raw, err := scalarFromTensor(axisT)
		if err == nil {
			if axis, err := normalizeAxis(int64(raw), data.Rank()); err == nil {
				foldCumSum(ans, data, axis, exclusive != 0, reverse != 0)
			}
		}
	}
	return []*tensor.Tensor{ans}, nil
}

func foldCumSum(ans, data *tensor.Tensor, axis int, exclusive, reverse bool) {
	dims, ok := data.Shape.Values()
	if !ok {
		return
	}
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	st := strides(dims)
	dt := data.DataType

	outer := int64(1)
	for _, d := range dims[:axis] {
		outer *= d
	}
	inner := st[axis]
	length := dims[axis]

	for o := int64(0); o < outer; o++ {
		for in := int64(0); in < inner; in++ {
			base := o*length*inner + in
			acc := 0.0
			for j := int64(0); j < length; j++ {
				idx := j
				if reverse {
					idx = length - 1 - j
				}
				off := base + idx*inner
				x, okR := tensor.ReadScalar(dt, data.Data(), off)
				if !okR {
					ans.Free()
					return
				}
				v := acc + x
				out := v
				if exclusive {
					out = acc
				}
				if !tensor.WriteScalar(dt, dst, off, out) {
					ans.Free()
					return
				}
				acc = v
			}
		}
	}
}
