package onnx

import (
	"sync"

	"github.com/loom-ml/loom/internal/kernel"
	"github.com/loom-ml/loom/internal/kernel/webgpu"
	"github.com/loom-ml/loom/internal/op"
)

// Register installs the onnx:: operator catalog into the process-wide
// registry. It is idempotent and must complete before the first Parse.
func Register() error {
	var err error
	registerOnce.Do(func() { err = registerAll() })
	return err
}

var registerOnce sync.Once

// binaryCollector routes element-wise binary kinds to per-target kernels.
func binaryCollector(kind kernel.BinaryKind) op.CollectorFactory {
	return func(_ *op.Operator, target kernel.Target) kernel.Collector {
		switch target {
		case kernel.CPU:
			return kernel.NewBinaryCPU(kind)
		case kernel.WebGPU:
			return webgpu.NewBinaryCollector(kind)
		default:
			return kernel.None()
		}
	}
}

func unaryCollector(kind kernel.UnaryKind) op.CollectorFactory {
	return func(_ *op.Operator, target kernel.Target) kernel.Collector {
		switch target {
		case kernel.CPU:
			return kernel.NewUnaryCPU(kind)
		case kernel.WebGPU:
			return webgpu.NewUnaryCollector(kind)
		default:
			return kernel.None()
		}
	}
}

// external marks operator kinds whose kernels come from an external backend
// package; the collector hook exists but enumerates nothing here.
func external(_ *op.Operator, _ kernel.Target) kernel.Collector {
	return kernel.None()
}

func registerAll() error {
	type reg struct {
		name       string
		infer      op.InferFn
		collectors op.CollectorFactory
	}
	regs := []reg{
		{"BatchNormalization", inferBatchNormalization, external},
		{"Cast", inferCast, external},
		{"Equal", inferCompare, external},
		{"Greater", inferCompare, external},
		{"GreaterOrEqual", inferCompare, external},
		{"Less", inferCompare, external},
		{"LessOrEqual", inferCompare, external},
		{"Concat", inferConcat, external},
		{"Constant", inferConstant, external},
		{"ConstantOfShape", inferConstantOfShape, external},
		{"Conv", inferConv, external},
		{"CumSum", inferCumSum, external},
		{"Einsum", inferEinsum, external},
		{"Expand", inferExpand, external},
		{"Gather", inferGather, external},
		{"GatherElements", inferGatherElements, external},
		{"Gemm", inferGemm, external},
		{"GlobalAveragePool", inferGlobalPool, external},
		{"GlobalLpPool", inferGlobalPool, external},
		{"GlobalMaxPool", inferGlobalPool, external},
		{"MatMul", inferMatMul, external},
		{"AveragePool", inferPool, external},
		{"LpPool", inferPool, external},
		{"MaxPool", inferPool, external},
		{"Range", inferRange, external},
		{"ReduceMean", inferReduce, external},
		{"ReduceL1", inferReduce, external},
		{"ReduceL2", inferReduce, external},
		{"ReduceLogSum", inferReduce, external},
		{"ReduceLogSumExp", inferReduce, external},
		{"ReduceMax", inferReduce, external},
		{"ReduceMin", inferReduce, external},
		{"ReduceProd", inferReduce, external},
		{"ReduceSum", inferReduce, external},
		{"ReduceSumSquare", inferReduce, external},
		{"Reshape", inferReshape, external},
		{"Max", inferSelect, external},
		{"Min", inferSelect, external},
		{"Shape", inferShape, external},
		{"Add", inferArithmetic, binaryCollector(kernel.BinAdd)},
		{"Sub", inferArithmetic, binaryCollector(kernel.BinSub)},
		{"Mul", inferArithmetic, binaryCollector(kernel.BinMul)},
		{"Div", inferArithmetic, binaryCollector(kernel.BinDiv)},
		{"Pow", inferArithmetic, binaryCollector(kernel.BinPow)},
		{"And", inferLogic, external},
		{"Or", inferLogic, external},
		{"Xor", inferLogic, external},
		{"Abs", inferSimpleUnary, unaryCollector(kernel.UnAbs)},
		{"Acos", inferSimpleUnary, external},
		{"Acosh", inferSimpleUnary, external},
		{"Asin", inferSimpleUnary, external},
		{"Asinh", inferSimpleUnary, external},
		{"Atan", inferSimpleUnary, external},
		{"Atanh", inferSimpleUnary, external},
		{"Cos", inferSimpleUnary, external},
		{"Cosh", inferSimpleUnary, external},
		{"Sin", inferSimpleUnary, external},
		{"Sinh", inferSimpleUnary, external},
		{"Tan", inferSimpleUnary, external},
		{"Tanh", inferSimpleUnary, unaryCollector(kernel.UnTanh)},
		{"Relu", inferSimpleUnary, unaryCollector(kernel.UnRelu)},
		{"Sqrt", inferSimpleUnary, unaryCollector(kernel.UnSqrt)},
		{"Sigmoid", inferSimpleUnary, unaryCollector(kernel.UnSigmoid)},
		{"Erf", inferSimpleUnary, unaryCollector(kernel.UnErf)},
		{"Log", inferSimpleUnary, unaryCollector(kernel.UnLog)},
		{"Not", inferSimpleUnary, external},
		{"Neg", inferSimpleUnary, unaryCollector(kernel.UnNeg)},
		{"Identity", inferSimpleUnary, external},
		{"Slice", inferSlice, external},
		{"Softmax", inferSoftmax, external},
		{"Split", inferSplit, external},
		{"Squeeze", inferSqueeze, external},
		{"Tile", inferTile, external},
		{"Transpose", inferTranspose, external},
		{"Unsqueeze", inferUnsqueeze, external},
		{"Where", inferWhere, external},
	}
	for _, r := range regs {
		if err := op.Register("onnx::"+r.name, r.infer, r.collectors); err != nil {
			return err
		}
	}
	return nil
}
