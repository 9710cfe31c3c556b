package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferConstant materializes the node's value attribute. The tensor form
// wins; the scalar and list forms build the obvious I64/F32 tensors.
func inferConstant(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 0); err != nil {
		return nil, err
	}
	if a, ok := o.Attributes["value"]; ok {
		t, err := a.Tensor()
		if err != nil {
			return nil, err
		}
		return []*tensor.Tensor{t}, nil
	}
	if a, ok := o.Attributes["value_int"]; ok {
		v, err := a.Int()
		if err != nil {
			return nil, err
		}
		return []*tensor.Tensor{scalarTensor(tensor.I64, float64(v))}, nil
	}
	if a, ok := o.Attributes["value_ints"]; ok {
		vs, err := a.Ints()
		if err != nil {
			return nil, err
		}
		t := tensor.New(tensor.I64, tensor.ShapeOf(int64(len(vs))))
		dst, _ := t.Malloc()
		for i, v := range vs {
			tensor.WriteInt(tensor.I64, dst, int64(i), v)
		}
		return []*tensor.Tensor{t}, nil
	}
	if a, ok := o.Attributes["value_float"]; ok {
		v, err := a.Float()
		if err != nil {
			return nil, err
		}
		return []*tensor.Tensor{scalarTensor(tensor.F32, v)}, nil
	}
	if a, ok := o.Attributes["value_floats"]; ok {
		vs, err := a.Floats()
		if err != nil {
			return nil, err
		}
		t := tensor.New(tensor.F32, tensor.ShapeOf(int64(len(vs))))
		dst, _ := t.Malloc()
		for i, v := range vs {
			tensor.WriteFloat(tensor.F32, dst, int64(i), v)
		}
		return []*tensor.Tensor{t}, nil
	}
	return nil, fmt.Errorf("%w: value on Constant", op.ErrAttributeMissing)
}

func scalarTensor(dt tensor.DataType, v float64) *tensor.Tensor {
	t := tensor.New(dt, tensor.Shape{})
	dst, _ := t.Malloc()
	tensor.WriteScalar(dt, dst, 0, v)
	return t
}

// inferConstantOfShape fills a tensor of the constant target shape with the
// value attribute's single element, defaulting to F32 zero.
func inferConstantOfShape(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 1); err != nil {
		return nil, err
	}
	dims, err := intsFromTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	for _, d := range dims {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension %d in ConstantOfShape", op.ErrShapeMismatch, d)
		}
	}

	dt := tensor.F32
	fill := 0.0
	if a, ok := o.Attributes["value"]; ok {
		vt, err := a.Tensor()
		if err != nil {
			return nil, err
		}
		n, err := vt.ElementsSize()
		if err != nil || n != 1 || !vt.HasData() {
			return nil, fmt.Errorf("%w: ConstantOfShape value must be one element", op.ErrShapeMismatch)
		}
		dt = vt.DataType
		v, ok := tensor.ReadScalar(dt, vt.Data(), 0)
		if !ok {
			return nil, fmt.Errorf("%w: %s ConstantOfShape value", op.ErrTypeUnsupported, dt)
		}
		fill = v
	}

	ans := tensor.New(dt, tensor.ShapeOf(dims...))
	dst, err := ans.Malloc()
	if err != nil {
		return nil, err
	}
	n, _ := ans.ElementsSize()
	for i := int64(0); i < n; i++ {
		tensor.WriteScalar(dt, dst, i, fill)
	}
	return []*tensor.Tensor{ans}, nil
}
