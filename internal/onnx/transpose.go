package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferTranspose permutes dimensions by the perm attribute, defaulting to
// full reversal.
func inferTranspose(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 1); err != nil {
		return nil, err
	}
	data := inputs[0]
	rank := data.Rank()

	perm, has, err := attrInts(o, "perm")
	if err != nil {
		return nil, err
	}
	if !has {
		perm = make([]int64, rank)
		for i := range perm {
			perm[i] = int64(rank - 1 - i)
		}
	}
	if len(perm) != rank {
		return nil, fmt.Errorf("%w: perm length %d for rank %d", op.ErrShapeMismatch, len(perm), rank)
	}
	seen := make([]bool, rank)
	output := make(tensor.Shape, rank)
	for i, p := range perm {
		axis, err := normalizeAxis(p, rank)
		if err != nil {
			return nil, err
		}
		if seen[axis] {
			return nil, fmt.Errorf("%w: duplicate perm axis %d", op.ErrShapeMismatch, axis)
		}
		seen[axis] = true
		output[i] = data.Shape[axis]
	}

	ans := tensor.New(data.DataType, output)
	if shouldCalculate(inputs, ans.Shape) {
		foldTranspose(ans, data, perm)
	}
	return []*tensor.Tensor{ans}, nil
}

func foldTranspose(ans, data *tensor.Tensor, perm []int64) {
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	outDims, _ := ans.Shape.Values()
	inDims, _ := data.Shape.Values()
	inStrides := strides(inDims)
	eleSize := int64(data.DataType.Size())
	n, _ := ans.ElementsSize()
	src := data.Data()

	pos := make([]int64, len(outDims))
	for i := int64(0); i < n; i++ {
		locateN(outDims, i, pos)
		var srcOff int64
		for j, p := range perm {
			srcOff += pos[j] * inStrides[p]
		}
		copy(dst[i*eleSize:(i+1)*eleSize], src[srcOff*eleSize:(srcOff+1)*eleSize])
	}
}
