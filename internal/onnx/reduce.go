package onnx

import (
	"fmt"
	"math"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// The ten Reduce variants share this routine; the reduce kind derives from
// the registered operator name.

type reduceKind uint8

const (
	reduceMean reduceKind = iota
	reduceL1
	reduceL2
	reduceLogSum
	reduceLogSumExp
	reduceMax
	reduceMin
	reduceProd
	reduceSum
	reduceSumSquare
)

var reduceKinds = map[string]reduceKind{
	"onnx::ReduceMean":      reduceMean,
	"onnx::ReduceL1":        reduceL1,
	"onnx::ReduceL2":        reduceL2,
	"onnx::ReduceLogSum":    reduceLogSum,
	"onnx::ReduceLogSumExp": reduceLogSumExp,
	"onnx::ReduceMax":       reduceMax,
	"onnx::ReduceMin":       reduceMin,
	"onnx::ReduceProd":      reduceProd,
	"onnx::ReduceSum":       reduceSum,
	"onnx::ReduceSumSquare": reduceSumSquare,
}

func inferReduce(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) != 1 && len(inputs) != 2 {
		return nil, fmt.Errorf("%w: %s takes 1 or 2 inputs, got %d",
			op.ErrShapeMismatch, o.OpType.Name(), len(inputs))
	}
	data := inputs[0]
	if !data.DataType.IsNumeric() {
		return nil, fmt.Errorf("%w: %s for %s", op.ErrTypeUnsupported, data.DataType, o.OpType.Name())
	}
	keepDims, err := attrInt(o, "keepdims", 1)
	if err != nil {
		return nil, err
	}
	noop, err := attrInt(o, "noop_with_empty_axes", 0)
	if err != nil {
		return nil, err
	}
	axes, err := axesOf(o, inputs)
	if err != nil {
		return nil, err
	}

	if len(axes) == 0 {
		if noop != 0 {
			ans := tensor.New(data.DataType, data.Shape.Clone())
			if data.HasData() {
				ans.SetData(data.Data())
			}
			return []*tensor.Tensor{ans}, nil
		}
		axes = make([]int64, data.Rank())
		for i := range axes {
			axes[i] = int64(i)
		}
	}

	reduced := make(map[int]bool)
	for _, a := range axes {
		axis, err := normalizeAxis(a, data.Rank())
		if err != nil {
			return nil, err
		}
		reduced[axis] = true
	}

	output := make(tensor.Shape, 0, data.Rank())
	for i, d := range data.Shape {
		switch {
		case !reduced[i]:
			output = append(output, d)
		case keepDims != 0:
			output = append(output, tensor.DimOf(1))
		}
	}

	ans := tensor.New(data.DataType, output)
	if shouldCalculate(inputs, ans.Shape) {
		foldReduce(reduceKinds[o.OpType.Name()], ans, data, reduced)
	}
	return []*tensor.Tensor{ans}, nil
}

// foldReduce accumulates in float64 over the reduced region of each output
// position.
func foldReduce(kind reduceKind, ans, data *tensor.Tensor, reduced map[int]bool) {
	inDims, ok := data.Shape.Values()
	if !ok {
		return
	}
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	inStrides := strides(inDims)
	dt := data.DataType

	// Split input axes into kept and reduced sets.
	var keptAxes, redAxes []int
	for i := range inDims {
		if reduced[i] {
			redAxes = append(redAxes, i)
		} else {
			keptAxes = append(keptAxes, i)
		}
	}
	redCount := int64(1)
	redDims := make([]int64, len(redAxes))
	for i, a := range redAxes {
		redDims[i] = inDims[a]
		redCount *= inDims[a]
	}
	keptDims := make([]int64, len(keptAxes))
	outCount := int64(1)
	for i, a := range keptAxes {
		keptDims[i] = inDims[a]
		outCount *= inDims[a]
	}

	keptPos := make([]int64, len(keptAxes))
	redPos := make([]int64, len(redAxes))
	for o := int64(0); o < outCount; o++ {
		locateN(keptDims, o, keptPos)
		var base int64
		for i, a := range keptAxes {
			base += keptPos[i] * inStrides[a]
		}

		acc := reduceInit(kind)
		for r := int64(0); r < redCount; r++ {
			locateN(redDims, r, redPos)
			off := base
			for i, a := range redAxes {
				off += redPos[i] * inStrides[a]
			}
			x, ok := tensor.ReadScalar(dt, data.Data(), off)
			if !ok {
				ans.Free()
				return
			}
			acc = reduceStep(kind, acc, x)
		}
		if !tensor.WriteScalar(dt, dst, o, reduceFinish(kind, acc, redCount)) {
			ans.Free()
			return
		}
	}
}

func reduceInit(kind reduceKind) float64 {
	switch kind {
	case reduceMax:
		return math.Inf(-1)
	case reduceMin:
		return math.Inf(1)
	case reduceProd:
		return 1
	default:
		return 0
	}
}

func reduceStep(kind reduceKind, acc, x float64) float64 {
	switch kind {
	case reduceMean, reduceSum, reduceLogSum:
		return acc + x
	case reduceL1:
		return acc + math.Abs(x)
	case reduceL2, reduceSumSquare:
		return acc + x*x
	case reduceLogSumExp:
		return acc + math.Exp(x)
	case reduceMax:
		return math.Max(acc, x)
	case reduceMin:
		return math.Min(acc, x)
	case reduceProd:
		return acc * x
	default:
		return acc
	}
}

func reduceFinish(kind reduceKind, acc float64, count int64) float64 {
	switch kind {
	case reduceMean:
		return acc / float64(count)
	case reduceL2:
		return math.Sqrt(acc)
	case reduceLogSum, reduceLogSumExp:
		return math.Log(acc)
	default:
		return acc
	}
}
