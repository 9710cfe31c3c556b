package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferTile repeats the input along each axis by the constant repeats input.
// A repeat of 1 keeps the dimension expression, preserving symbolic dims.
func inferTile(_ *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	data := inputs[0]
	repeats, err := intsFromTensor(inputs[1])
	if err != nil {
		return nil, err
	}
	if len(repeats) != data.Rank() {
		return nil, fmt.Errorf("%w: %d repeats for rank %d",
			op.ErrShapeMismatch, len(repeats), data.Rank())
	}

	output := make(tensor.Shape, data.Rank())
	for i, rep := range repeats {
		if rep < 0 {
			return nil, fmt.Errorf("%w: negative Tile repeat", op.ErrShapeMismatch)
		}
		if rep == 1 {
			output[i] = data.Shape[i]
			continue
		}
		v, ok := data.Shape[i].Value()
		if !ok {
			return nil, &op.UnknownVariableError{Name: data.Shape[i].Variable().Name}
		}
		output[i] = tensor.DimOf(v * rep)
	}

	ans := tensor.New(data.DataType, output)
	if shouldCalculate(inputs, ans.Shape) {
		foldTile(ans, data)
	}
	return []*tensor.Tensor{ans}, nil
}

func foldTile(ans, data *tensor.Tensor) {
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
		for j := range pos {
			srcOff += (pos[j] % inDims[j]) * inStrides[j]
		}
		copy(dst[i*eleSize:(i+1)*eleSize], src[srcOff*eleSize:(srcOff+1)*eleSize])
	}
}

// inferExpand broadcasts the input against a constant target shape.
func inferExpand(_ *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	data := inputs[0]
	target, err := intsFromTensor(inputs[1])
	if err != nil {
		return nil, err
	}
	targetShape := tensor.ShapeOf(target...)
	output, err := multidirBroadcast(data.Shape, targetShape)
	if err != nil {
		return nil, err
	}

	ans := tensor.New(data.DataType, output)
	if shouldCalculate([]*tensor.Tensor{data}, ans.Shape) {
		foldExpand(ans, data)
	}
	return []*tensor.Tensor{ans}, nil
}

func foldExpand(ans, data *tensor.Tensor) {
	inDims, ok := data.Shape.Values()
	if !ok {
		return
	}
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	outDims, _ := ans.Shape.Values()
	eleSize := int64(data.DataType.Size())
	n, _ := ans.ElementsSize()
	inCount, _ := data.ElementsSize()
	src := data.Data()

	inStrides := strides(inDims)
	pos := make([]int64, len(outDims))
	offset := len(outDims) - len(inDims)
	for i := int64(0); i < n; i++ {
		locateN(outDims, i, pos)
		var srcOff int64
		for j := range inDims {
			srcOff += (pos[offset+j] % inDims[j]) * inStrides[j]
		}
		if srcOff >= inCount {
			ans.Free()
			return
		}
		copy(dst[i*eleSize:(i+1)*eleSize], src[srcOff*eleSize:(srcOff+1)*eleSize])
	}
}
