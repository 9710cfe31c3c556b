package kernel

import (
	"fmt"
	"math"

	"github.com/loom-ml/loom/internal/broadcast"
	"github.com/loom-ml/loom/internal/tensor"
)

// BinaryKind names an element-wise binary operation.
type BinaryKind string

// Element-wise binary kinds with CPU kernels.
const (
	BinAdd BinaryKind = "Add"
	BinSub BinaryKind = "Sub"
	BinMul BinaryKind = "Mul"
	BinDiv BinaryKind = "Div"
	BinPow BinaryKind = "Pow"
)

// NewBinaryCPU returns the CPU collector for an element-wise binary kind.
// Candidates handle the IEEE 754 float types over any broadcast pattern.
func NewBinaryCPU(kind BinaryKind) Collector {
	return CollectorFunc(func(inputs, outputs []*tensor.Tensor) []Box {
		if len(inputs) != 2 || len(outputs) != 1 {
			return nil
		}
		dt := inputs[0].DataType
		if inputs[1].DataType != dt || !dt.IsIeee754() {
			return nil
		}
		aDims, okA := inputs[0].Shape.Values()
		bDims, okB := inputs[1].Shape.Values()
		n, okO := outputs[0].Shape.Elements()
		if !okA || !okB || !okO {
			return nil
		}
		plan, err := broadcast.New(aDims, bDims)
		if err != nil || plan.OutputsCount != n {
			return nil
		}
		return []Box{&binaryCPU{kind: kind, dtype: dt, plan: plan}}
	})
}

type binaryCPU struct {
	kind  BinaryKind
	dtype tensor.DataType
	plan  *broadcast.Broadcaster
}

func (b *binaryCPU) Name() string {
	return fmt.Sprintf("%s/%s/cpu", b.kind, b.dtype)
}

func (b *binaryCPU) Lower(_ *Resources) (Routine, error) {
	kind, dt, plan := b.kind, b.dtype, b.plan
	return func(_ *Resources, inputs, outputs [][]byte) error {
		if len(inputs) != 2 || len(outputs) != 1 {
			return fmt.Errorf("kernel: %s expects 2 inputs and 1 output", kind)
		}
		loc := make([]int64, 2)
		for k := int64(0); k < plan.OutputsCount; k++ {
			plan.Locate(k, loc)
			x, _ := tensor.ReadFloat(dt, inputs[0], loc[0])
			y, _ := tensor.ReadFloat(dt, inputs[1], loc[1])
			var v float64
			switch kind {
			case BinAdd:
				v = x + y
			case BinSub:
				v = x - y
			case BinMul:
				v = x * y
			case BinDiv:
				v = x / y
			case BinPow:
				v = math.Pow(x, y)
			default:
				return fmt.Errorf("kernel: unknown binary kind %s", kind)
			}
			tensor.WriteFloat(dt, outputs[0], k, v)
		}
		return nil
	}, nil
}
