package onnx

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferSlice: starts/ends (and optional axes/steps) are constant I32/I64
// inputs. Limits are clamped per the ONNX rules, which needs the value of
// every sliced dimension.
func inferSlice(_ *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) < 3 || len(inputs) > 5 {
		return nil, fmt.Errorf("%w: Slice takes 3 to 5 inputs, got %d",
			op.ErrShapeMismatch, len(inputs))
	}
	data := inputs[0]
	rank := data.Rank()
	starts, err := intsFromTensor(inputs[1])
	if err != nil {
		return nil, err
	}
	ends, err := intsFromTensor(inputs[2])
	if err != nil {
		return nil, err
	}
	if len(starts) != len(ends) {
		return nil, fmt.Errorf("%w: starts and ends lengths differ", op.ErrShapeMismatch)
	}

	axes := make([]int64, len(starts))
	for i := range axes {
		axes[i] = int64(i)
	}
	if len(inputs) >= 4 {
		if axes, err = intsFromTensor(inputs[3]); err != nil {
			return nil, err
		}
	}
	steps := make([]int64, len(starts))
	for i := range steps {
		steps[i] = 1
	}
	if len(inputs) == 5 {
		if steps, err = intsFromTensor(inputs[4]); err != nil {
			return nil, err
		}
	}
	if len(axes) != len(starts) || len(steps) != len(starts) {
		return nil, fmt.Errorf("%w: axes/steps lengths differ from starts", op.ErrShapeMismatch)
	}

	// Per-axis window, default full range.
	type window struct{ start, end, step int64 }
	windows := make([]window, rank)
	for i := range windows {
		windows[i] = window{start: 0, end: -1, step: 1} // end resolved below
	}
	touched := make([]bool, rank)
	for i := range starts {
		axis, err := normalizeAxis(axes[i], rank)
		if err != nil {
			return nil, err
		}
		if steps[i] == 0 {
			return nil, fmt.Errorf("%w: Slice step 0", op.ErrShapeMismatch)
		}
		windows[axis] = window{start: starts[i], end: ends[i], step: steps[i]}
		touched[axis] = true
	}

	output := make(tensor.Shape, rank)
	for i := 0; i < rank; i++ {
		if !touched[i] {
			output[i] = data.Shape[i]
			continue
		}
		dim, ok := data.Shape[i].Value()
		if !ok {
			return nil, &op.UnknownVariableError{Name: data.Shape[i].Variable().Name}
		}
		w := windows[i]
		start, end := clampSlice(w.start, w.end, w.step, dim)
		var count int64
		if w.step > 0 && end > start {
			count = (end - start + w.step - 1) / w.step
		} else if w.step < 0 && end < start {
			count = (start - end - w.step - 1) / -w.step
		}
		output[i] = tensor.DimOf(count)
		windows[i] = window{start: start, end: end, step: w.step}
	}

	ans := tensor.New(data.DataType, output)
	if shouldCalculate(inputs, ans.Shape) {
		wStart := make([]int64, rank)
		wStep := make([]int64, rank)
		for i := 0; i < rank; i++ {
			wStep[i] = 1
			if touched[i] {
				wStart[i] = windows[i].start
				wStep[i] = windows[i].step
			}
		}
		foldSlice(ans, data, wStart, wStep)
	}
	return []*tensor.Tensor{ans}, nil
}

// clampSlice resolves negative and overflowing limits against dim.
func clampSlice(start, end, step, dim int64) (int64, int64) {
	if start < 0 {
		start += dim
	}
	if end < 0 {
		end += dim
	}
	if step > 0 {
		start = min(max(start, 0), dim)
		end = min(max(end, 0), dim)
	} else {
		start = min(max(start, 0), dim-1)
		end = min(max(end, -1), dim)
	}
	return start, end
}

func foldSlice(ans, data *tensor.Tensor, start, step []int64) {
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
			srcOff += (start[j] + pos[j]*step[j]) * inStrides[j]
		}
		copy(dst[i*eleSize:(i+1)*eleSize], src[srcOff*eleSize:(srcOff+1)*eleSize])
	}
}
