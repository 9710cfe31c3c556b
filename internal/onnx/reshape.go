package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferReshape: the second input is a constant I64 target. 0 copies the
// input dimension (unless allowzero), -1 is inferred from the element count.
// Verifying element-count conservation requires every input dimension's
// value, so unbound variables surface as UnknownVariable.
func inferReshape(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	data := inputs[0]
	target, err := intsFromTensor(inputs[1])
	if err != nil {
		return nil, err
	}
	allowZero, err := attrInt(o, "allowzero", 0)
	if err != nil {
		return nil, err
	}

	inDims, err := requireValues(data.Shape)
	if err != nil {
		return nil, err
	}
	total := int64(1)
	for _, d := range inDims {
		total *= d
	}

	output := make(tensor.Shape, len(target))
	known := int64(1)
	infer := -1
	for i, d := range target {
		switch {
		case d == -1:
			if infer >= 0 {
				return nil, fmt.Errorf("%w: multiple -1 in Reshape target", op.ErrShapeMismatch)
			}
			infer = i
		case d == 0 && allowZero == 0:
			if i >= data.Rank() {
				return nil, fmt.Errorf("%w: Reshape 0-copy outside input rank", op.ErrShapeMismatch)
			}
			output[i] = data.Shape[i]
			known *= inDims[i]
		case d < -1:
			return nil, fmt.Errorf("%w: Reshape dimension %d", op.ErrShapeMismatch, d)
		default:
			output[i] = tensor.DimOf(d)
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || total%known != 0 {
			return nil, fmt.Errorf("%w: cannot infer -1 for %d elements over %d",
				op.ErrShapeMismatch, total, known)
		}
		output[infer] = tensor.DimOf(total / known)
	} else if known != total {
		return nil, fmt.Errorf("%w: Reshape from %d to %d elements",
			op.ErrShapeMismatch, total, known)
	}

	ans := tensor.New(data.DataType, output)
	if data.HasData() {
		ans.SetData(data.Data())
	}
	return []*tensor.Tensor{ans}, nil
}

// inferSqueeze removes size-1 dimensions, either the given axes or all of
// them. Axes come from the second input (newer opsets) or the axes
// attribute.
func inferSqueeze(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) != 1 && len(inputs) != 2 {
		return nil, fmt.Errorf("%w: Squeeze takes 1 or 2 inputs, got %d",
			op.ErrShapeMismatch, len(inputs))
	}
	data := inputs[0]
	axes, err := axesOf(o, inputs)
	if err != nil {
		return nil, err
	}

	drop := make(map[int]bool)
	if len(axes) == 0 {
		for i, d := range data.Shape {
			v, ok := d.Value()
			if !ok {
				return nil, &op.UnknownVariableError{Name: d.Variable().Name}
			}
			if v == 1 {
				drop[i] = true
			}
		}
	} else {
		for _, a := range axes {
			axis, err := normalizeAxis(a, data.Rank())
			if err != nil {
				return nil, err
			}
			v, ok := data.Shape[axis].Value()
			if !ok {
				return nil, &op.UnknownVariableError{Name: data.Shape[axis].Variable().Name}
			}
			if v != 1 {
				return nil, fmt.Errorf("%w: Squeeze axis %d has dimension %d",
					op.ErrShapeMismatch, axis, v)
			}
			drop[axis] = true
		}
	}

	output := make(tensor.Shape, 0, data.Rank()-len(drop))
	for i, d := range data.Shape {
		if !drop[i] {
			output = append(output, d)
		}
	}
	ans := tensor.New(data.DataType, output)
	if data.HasData() {
		ans.SetData(data.Data())
	}
	return []*tensor.Tensor{ans}, nil
}

// inferUnsqueeze inserts size-1 dimensions at the given axes, normalized
// against the output rank.
func inferUnsqueeze(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) != 1 && len(inputs) != 2 {
		return nil, fmt.Errorf("%w: Unsqueeze takes 1 or 2 inputs, got %d",
			op.ErrShapeMismatch, len(inputs))
	}
	data := inputs[0]
	axes, err := axesOf(o, inputs)
	if err != nil {
		return nil, err
	}
	if len(axes) == 0 {
		return nil, fmt.Errorf("%w: axes on Unsqueeze", op.ErrAttributeMissing)
	}

	outRank := data.Rank() + len(axes)
	insert := make(map[int]bool)
	for _, a := range axes {
		axis, err := normalizeAxis(a, outRank)
		if err != nil {
			return nil, err
		}
		if insert[axis] {
			return nil, fmt.Errorf("%w: duplicate Unsqueeze axis %d", op.ErrShapeMismatch, axis)
		}
		insert[axis] = true
	}

	output := make(tensor.Shape, 0, outRank)
	src := 0
	for i := 0; i < outRank; i++ {
		if insert[i] {
			output = append(output, tensor.DimOf(1))
		} else {
			output = append(output, data.Shape[src])
			src++
		}
	}
	ans := tensor.New(data.DataType, output)
	if data.HasData() {
		ans.SetData(data.Data())
	}
	return []*tensor.Tensor{ans}, nil
}

// axesOf reads axes from input[1] when present, else the axes attribute.
func axesOf(o *op.Operator, inputs []*tensor.Tensor) ([]int64, error) {
	if len(inputs) == 2 {
		return intsFromTensor(inputs[1])
	}
	axes, _, err := attrInts(o, "axes")
	return axes, err
}
