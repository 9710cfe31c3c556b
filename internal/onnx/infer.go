// Package onnx implements shape inference and constant folding for the
// onnx:: operator catalog, plus the catalog registration itself.
package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

func expectSize(inputs []*tensor.Tensor, n int) error {
	if len(inputs) != n {
		return fmt.Errorf("%w: expected %d inputs, got %d", op.ErrShapeMismatch, n, len(inputs))
	}
	return nil
}

// shouldCalculate reports whether an operator may fold: every input carries
// data and the output shape is fully concrete.
func shouldCalculate(inputs []*tensor.Tensor, outputShape tensor.Shape) bool {
	if !outputShape.HasValue() {
		return false
	}
	for _, t := range inputs {
		if !t.HasData() {
			return false
		}
	}
	return true
}

// multidirBroadcast combines shapes under multidirectional broadcasting,
// preserving symbolic dimensions where every input agrees. A dimension that
// must be compared numerically but references an unbound variable yields an
// UnknownVariableError.
func multidirBroadcast(shapes ...tensor.Shape) (tensor.Shape, error) {
	maxRank := 0
	for _, s := range shapes {
		if s.Rank() > maxRank {
			maxRank = s.Rank()
		}
	}
	out := make(tensor.Shape, maxRank)
	for p := 0; p < maxRank; p++ {
		var dims []tensor.DimExpr
		for _, s := range shapes {
			if i := s.Rank() - maxRank + p; i >= 0 {
				dims = append(dims, s[i])
			}
		}
		allEqual := true
		for _, d := range dims[1:] {
			if !d.Equal(dims[0]) {
				allEqual = false
				break
			}
		}
		if allEqual {
			out[p] = dims[0]
			continue
		}
		// Mixed dimensions: resolve numerically, size-1 broadcasts away.
		result := int64(1)
		for _, d := range dims {
			v, ok := d.Value()
			if !ok {
				return nil, &op.UnknownVariableError{Name: d.Variable().Name}
			}
			if v == 1 {
				continue
			}
			if result == 1 {
				result = v
			} else if result != v {
				return nil, fmt.Errorf("%w: cannot broadcast dimension %d with %d",
					op.ErrShapeMismatch, result, v)
			}
		}
		out[p] = tensor.DimOf(result)
	}
	return out, nil
}

// Attribute convenience accessors.

func attrInt(o *op.Operator, name string, def int64) (int64, error) {
	a, ok := o.Attributes[name]
	if !ok {
		return def, nil
	}
	return a.Int()
}

func attrFloat(o *op.Operator, name string, def float64) (float64, error) {
	a, ok := o.Attributes[name]
	if !ok {
		return def, nil
	}
	return a.Float()
}

func attrString(o *op.Operator, name string, def string) (string, error) {
	a, ok := o.Attributes[name]
	if !ok {
		return def, nil
	}
	return a.String()
}

func attrInts(o *op.Operator, name string) ([]int64, bool, error) {
	a, ok := o.Attributes[name]
	if !ok {
		return nil, false, nil
	}
	v, err := a.Ints()
	return v, err == nil, err
}

// normalizeAxis maps a possibly negative axis into [0, rank).
func normalizeAxis(axis int64, rank int) (int, error) {
	if axis < 0 {
		axis += int64(rank)
	}
	if axis < 0 || axis >= int64(rank) {
		return 0, fmt.Errorf("%w: axis %d outside rank %d", op.ErrShapeMismatch, axis, rank)
	}
	return int(axis), nil
}

// intsFromTensor reads a 1-D I32/I64 tensor's data as int64 values.
func intsFromTensor(t *tensor.Tensor) ([]int64, error) {
	if t.DataType != tensor.I32 && t.DataType != tensor.I64 {
		return nil, fmt.Errorf("%w: expected I32 or I64 index tensor, got %s",
			op.ErrTypeUnsupported, t.DataType)
	}
	if !t.HasData() {
		return nil, fmt.Errorf("%w: index tensor has no data", op.ErrShapeMismatch)
	}
	n, err := t.ElementsSize()
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := int64(0); i < n; i++ {
		v, _ := tensor.ReadInt(t.DataType, t.Data(), i)
		out[i] = v
	}
	return out, nil
}

// scalarFromTensor reads a single-element numeric tensor as float64.
func scalarFromTensor(t *tensor.Tensor) (float64, error) {
	n, err := t.ElementsSize()
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, fmt.Errorf("%w: expected a scalar, got %s", op.ErrShapeMismatch, t.Shape.Format())
	}
	if !t.HasData() {
		return 0, fmt.Errorf("%w: scalar input has no data", op.ErrShapeMismatch)
	}
	v, ok := tensor.ReadScalar(t.DataType, t.Data(), 0)
	if !ok {
		return 0, fmt.Errorf("%w: %s scalar", op.ErrTypeUnsupported, t.DataType)
	}
	return v, nil
}

// strides returns row-major strides for concrete dims.
func strides(dims []int64) []int64 {
	out := make([]int64, len(dims))
	mul := int64(1)
	for i := len(dims) - 1; i >= 0; i-- {
		out[i] = mul
		mul *= dims[i]
	}
	return out
}

// locateN decodes linear index k into N-dimensional indices for dims.
func locateN(dims []int64, k int64, out []int64) {
	for i := len(dims) - 1; i >= 0; i-- {
		out[i] = k % dims[i]
		k /= dims[i]
	}
}

// requireValues resolves a shape to concrete dims, reporting the first
// unbound variable.
func requireValues(s tensor.Shape) ([]int64, error) {
	dims := make([]int64, s.Rank())
	for i, d := range s {
		v, ok := d.Value()
		if !ok {
			return nil, &op.UnknownVariableError{Name: d.Variable().Name}
		}
		dims[i] = v
	}
	return dims, nil
}
