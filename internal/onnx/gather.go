package onnx

import (
	"fmt"
	"sync/atomic"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/parallel"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferGather: output shape is data.shape[:axis] ++ indices.shape ++
// data.shape[axis+1:]. Folding copies elements in parallel over disjoint
// output positions.
func inferGather(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	data, indices := inputs[0], inputs[1]
	if indices.DataType != tensor.I32 && indices.DataType != tensor.I64 {
		return nil, fmt.Errorf("%w: %s indices for Gather", op.ErrTypeUnsupported, indices.DataType)
	}
	r := data.Rank()
	axisAttr, err := attrInt(o, "axis", 0)
	if err != nil {
		return nil, err
	}
	axis, err := normalizeAxis(axisAttr, r)
	if err != nil {
		return nil, err
	}

	output := make(tensor.Shape, 0, r-1+indices.Rank())
	output = append(output, data.Shape[:axis]...)
	output = append(output, indices.Shape...)
	output = append(output, data.Shape[axis+1:]...)

	ans := tensor.New(data.DataType, output)
	if !shouldCalculate(inputs, ans.Shape) {
		return []*tensor.Tensor{ans}, nil
	}

	dataDims, err := requireValues(data.Shape)
	if err != nil {
		return []*tensor.Tensor{ans}, nil
	}
	if err := foldGather(ans, data, indices, dataDims, axis); err != nil {
		ans.Free()
	}
	return []*tensor.Tensor{ans}, nil
}

func foldGather(ans, data, indices *tensor.Tensor, dataDims []int64, axis int) error {
	outDims, _ := ans.Shape.Values()
	dst, err := ans.Malloc()
	if err != nil {
		return err
	}
	n, _ := ans.ElementsSize()
	q := indices.Rank()
	eleSize := int64(data.DataType.Size())
	dataStrides := strides(dataDims)
	idxDims, _ := indices.Shape.Values()
	src := data.Data()

	var outOfRange atomic.Bool
	parallel.For(int(n), func(ik int) {
		i := int64(ik)
		pos := make([]int64, len(outDims))
		locateN(outDims, i, pos)

		// Linearize the indices block of the output position.
		var ii int64
		mul := int64(1)
		for j := axis + q - 1; j >= axis; j-- {
			ii += pos[j] * mul
			mul *= idxDims[j-axis]
		}
		k, _ := tensor.ReadInt(indices.DataType, indices.Data(), ii)
		if k < 0 {
			k += dataDims[axis]
		}
		if k < 0 || k >= dataDims[axis] {
			outOfRange.Store(true)
			return
		}

		// Source position: output dims outside the indices block map
		// one-to-one onto data dims; the block collapses to k.
		var srcOff int64
		for j := 0; j < axis; j++ {
			srcOff += pos[j] * dataStrides[j]
		}
		srcOff += k * dataStrides[axis]
		for j := axis + q; j < len(outDims); j++ {
			srcOff += pos[j] * dataStrides[j-q+1]
		}
		copy(dst[i*eleSize:(i+1)*eleSize], src[srcOff*eleSize:(srcOff+1)*eleSize])
	}, parallel.DefaultConfig())
	if outOfRange.Load() {
		return fmt.Errorf("%w: gather index outside dimension %d",
			op.ErrShapeMismatch, dataDims[axis])
	}
	return nil
}
