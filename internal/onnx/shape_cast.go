package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferShape produces a 1-D I64 tensor of the input's dimensions, windowed
// by the start/end attributes. The values are materialized, so every
// windowed dimension must be resolvable.
func inferShape(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 1); err != nil {
		return nil, err
	}
	data := inputs[0]
	rank := data.Rank()

	start, err := attrInt(o, "start", 0)
	if err != nil {
		return nil, err
	}
	end, err := attrInt(o, "end", int64(rank))
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start += int64(rank)
	}
	if end < 0 {
		end += int64(rank)
	}
	start = min(max(start, 0), int64(rank))
	end = min(max(end, 0), int64(rank))
	if end < start {
		end = start
	}

	n := end - start
	ans := tensor.New(tensor.I64, tensor.ShapeOf(n))
	dst, _ := ans.Malloc()
	for i := int64(0); i < n; i++ {
		d := data.Shape[start+i]
		v, ok := d.Value()
		if !ok {
			return nil, &op.UnknownVariableError{Name: d.Variable().Name}
		}
		tensor.WriteInt(tensor.I64, dst, i, v)
	}
	return []*tensor.Tensor{ans}, nil
}

// inferCast converts the element type per the "to" attribute; the shape
// passes through. Folding converts via the widened scalar path; unsupported
// source or destination types leave a shape-only output.
func inferCast(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 1); err != nil {
		return nil, err
	}
	attr, err := o.Attribute("to")
	if err != nil {
		return nil, err
	}
	code, err := attr.Int()
	if err != nil {
		return nil, err
	}
	to, ok := tensor.ParseDataType(uint8(code))
	if !ok {
		return nil, fmt.Errorf("%w: Cast to code %d", op.ErrTypeUnsupported, code)
	}

	data := inputs[0]
	ans := tensor.New(to, data.Shape.Clone())
	if shouldCalculate(inputs, ans.Shape) {
		foldCast(ans, data)
	}
	return []*tensor.Tensor{ans}, nil
}

func foldCast(ans, data *tensor.Tensor) {
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	n, _ := ans.ElementsSize()
	for i := int64(0); i < n; i++ {
		v, ok := tensor.ReadScalar(data.DataType, data.Data(), i)
		if !ok || !tensor.WriteScalar(ans.DataType, dst, i, v) {
			ans.Free()
			return
		}
	}
}
