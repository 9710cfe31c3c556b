package kernel

import (
	"fmt"
	"math"

	"github.com/loom-ml/loom/internal/tensor"
)

// UnaryKind names an element-wise unary operation.
type UnaryKind string

// Element-wise unary kinds with CPU kernels.
const (
	UnRelu    UnaryKind = "Relu"
	UnSigmoid UnaryKind = "Sigmoid"
	UnTanh    UnaryKind = "Tanh"
	UnSqrt    UnaryKind = "Sqrt"
	UnNeg     UnaryKind = "Neg"
	UnAbs     UnaryKind = "Abs"
	UnLog     UnaryKind = "Log"
	UnErf     UnaryKind = "Erf"
)

var unaryFns = map[UnaryKind]func(float64) float64{
	UnRelu:    func(x float64) float64 { return math.Max(x, 0) },
	UnSigmoid: func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
	UnTanh:    math.Tanh,
	UnSqrt:    math.Sqrt,
	UnNeg:     func(x float64) float64 { return -x },
	UnAbs:     math.Abs,
	UnLog:     math.Log,
	UnErf:     math.Erf,
}

// NewUnaryCPU returns the CPU collector for an element-wise unary kind.
func NewUnaryCPU(kind UnaryKind) Collector {
	return CollectorFunc(func(inputs, outputs []*tensor.Tensor) []Box {
		if len(inputs) != 1 || len(outputs) != 1 {
			return nil
		}
		if _, ok := unaryFns[kind]; !ok {
			return nil
		}
		dt := inputs[0].DataType
		if !dt.IsIeee754() {
			return nil
		}
		n, ok := inputs[0].Shape.Elements()
		if !ok {
			return nil
		}
		return []Box{&unaryCPU{kind: kind, dtype: dt, count: n}}
	})
}

type unaryCPU struct {
	kind  UnaryKind
	dtype tensor.DataType
	count int64
}

func (u *unaryCPU) Name() string {
	return fmt.Sprintf("%s/%s/cpu", u.kind, u.dtype)
}

func (u *unaryCPU) Lower(_ *Resources) (Routine, error) {
	fn := unaryFns[u.kind]
	dt, n := u.dtype, u.count
	return func(_ *Resources, inputs, outputs [][]byte) error {
		if len(inputs) != 1 || len(outputs) != 1 {
			return fmt.Errorf("kernel: %s expects 1 input and 1 output", u.kind)
		}
		for i := int64(0); i < n; i++ {
			x, _ := tensor.ReadFloat(dt, inputs[0], i)
			tensor.WriteFloat(dt, outputs[0], i, fn(x))
		}
		return nil
	}, nil
}
