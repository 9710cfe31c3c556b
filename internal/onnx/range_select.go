package onnx

import (
	"fmt"
	"math"

	"github.com/loom-ml/loom/internal/broadcast"
	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferRange builds the arithmetic progression [start, limit) by delta from
// three constant scalars of one numeric type.
func inferRange(_ *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 3); err != nil {
		return nil, err
	}
	dt := inputs[0].DataType
	if !dt.IsNumeric() {
		return nil, fmt.Errorf("%w: %s for Range", op.ErrTypeUnsupported, dt)
	}
	for _, in := range inputs[1:] {
		if in.DataType != dt {
			return nil, fmt.Errorf("%w: mixed Range input types", op.ErrTypeUnsupported)
		}
	}
	start, err := scalarFromTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	limit, err := scalarFromTensor(inputs[1])
	if err != nil {
		return nil, err
	}
	delta, err := scalarFromTensor(inputs[2])
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, fmt.Errorf("%w: Range delta is 0", op.ErrShapeMismatch)
	}
	n := int64(math.Max(math.Ceil((limit-start)/delta), 0))

	ans := tensor.New(dt, tensor.ShapeOf(n))
	dst, err := ans.Malloc()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		if !tensor.WriteScalar(dt, dst, i, start+float64(i)*delta) {
			ans.Free()
			break
		}
	}
	return []*tensor.Tensor{ans}, nil
}

// inferSelect handles Max and Min over one or more broadcast inputs of one
// numeric type.
func inferSelect(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) < 1 {
		return nil, fmt.Errorf("%w: %s needs inputs", op.ErrShapeMismatch, o.OpType.Name())
	}
	dt := inputs[0].DataType
	if !dt.IsNumeric() {
		return nil, fmt.Errorf("%w: %s for %s", op.ErrTypeUnsupported, dt, o.OpType.Name())
	}
	shapes := make([]tensor.Shape, len(inputs))
	for i, in := range inputs {
		if in.DataType != dt {
			return nil, fmt.Errorf("%w: mixed types in %s", op.ErrTypeUnsupported, o.OpType.Name())
		}
		shapes[i] = in.Shape
	}
	shape, err := multidirBroadcast(shapes...)
	if err != nil {
		return nil, err
	}

	ans := tensor.New(dt, shape)
	if shouldCalculate(inputs, ans.Shape) {
		isMax := o.OpType.Is("onnx::Max")
		if len(inputs) == 2 {
			// The binary fold keeps integer comparisons exact.
			kind := binMin
			if isMax {
				kind = binMax
			}
			foldBinary(kind, ans, inputs)
		} else {
			foldSelect(isMax, ans, inputs)
		}
	}
	return []*tensor.Tensor{ans}, nil
}

func foldSelect(isMax bool, ans *tensor.Tensor, inputs []*tensor.Tensor) {
	dims := make([][]int64, len(inputs))
	for i, in := range inputs {
		d, ok := in.Shape.Values()
		if !ok {
			return
		}
		dims[i] = d
	}
	plan, err := broadcast.New(dims...)
	if err != nil {
		return
	}
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	n, _ := ans.ElementsSize()
	dt := ans.DataType
	loc := make([]int64, len(inputs))
	for k := int64(0); k < n; k++ {
		plan.Locate(k, loc)
		best, ok := tensor.ReadScalar(dt, inputs[0].Data(), loc[0])
		if !ok {
			ans.Free()
			return
		}
		for i := 1; i < len(inputs); i++ {
			v, _ := tensor.ReadScalar(dt, inputs[i].Data(), loc[i])
			if (isMax && v > best) || (!isMax && v < best) {
				best = v
			}
		}
		if !tensor.WriteScalar(dt, dst, k, best) {
			ans.Free()
			return
		}
	}
}
