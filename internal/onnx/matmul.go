package onnx

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/loom-ml/loom/internal/broadcast"
	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferMatMul: N-D batched matrix product with broadcast batch dimensions.
// 1-D operands follow the usual prepend/append-and-drop rule.
func inferMatMul(_ *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := expectSize(inputs, 2); err != nil {
		return nil, err
	}
	a, b := inputs[0], inputs[1]
	if !a.DataType.IsNumeric() || b.DataType != a.DataType {
		return nil, fmt.Errorf("%w: %s and %s for MatMul", op.ErrTypeUnsupported, a.DataType, b.DataType)
	}
	if a.Rank() == 0 || b.Rank() == 0 {
		return nil, fmt.Errorf("%w: MatMul on a scalar", op.ErrShapeMismatch)
	}

	aShape := a.Shape.Clone()
	bShape := b.Shape.Clone()
	promoteA := aShape.Rank() == 1
	promoteB := bShape.Rank() == 1
	if promoteA {
		aShape = append(tensor.Shape{tensor.DimOf(1)}, aShape...)
	}
	if promoteB {
		bShape = append(bShape, tensor.DimOf(1))
	}

	m, ka := aShape[aShape.Rank()-2], aShape[aShape.Rank()-1]
	kb, n := bShape[bShape.Rank()-2], bShape[bShape.Rank()-1]
	if !ka.Equal(kb) {
		va, okA := ka.Value()
		vb, okB := kb.Value()
		if okA && okB && va != vb {
			return nil, fmt.Errorf("%w: MatMul contraction %d vs %d", op.ErrShapeMismatch, va, vb)
		}
		if !okA {
			return nil, &op.UnknownVariableError{Name: ka.Variable().Name}
		}
		if !okB {
			return nil, &op.UnknownVariableError{Name: kb.Variable().Name}
		}
	}

	batch, err := multidirBroadcast(aShape[:aShape.Rank()-2], bShape[:bShape.Rank()-2])
	if err != nil {
		return nil, err
	}
	output := append(batch.Clone(), m, n)
	if promoteA {
		output = append(output[:output.Rank()-2], output[output.Rank()-1])
	}
	if promoteB {
		output = output[:output.Rank()-1]
	}

	ans := tensor.New(a.DataType, output)
	if shouldCalculate(inputs, ans.Shape) {
		foldMatMul(ans, a, b, aShape, bShape, batch)
	}
	return []*tensor.Tensor{ans}, nil
}

// foldMatMul multiplies per batch through gonum dense matrices in float64.
func foldMatMul(ans, a, b *tensor.Tensor, aShape, bShape, batch tensor.Shape) {
	aDims, ok1 := aShape.Values()
	bDims, ok2 := bShape.Values()
	batchDims, ok3 := batch.Values()
	if !ok1 || !ok2 || !ok3 {
		return
	}
	mm := aDims[len(aDims)-2]
	kk := aDims[len(aDims)-1]
	nn := bDims[len(bDims)-1]

	aBatch, err := broadcast.New(aDims[:len(aDims)-2], bDims[:len(bDims)-2])
	if err != nil {
		return
	}
	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	dt := ans.DataType

	batchCount := int64(1)
	for _, d := range batchDims {
		batchCount *= d
	}
	loc := make([]int64, 2)
	am := mat.NewDense(int(mm), int(kk), nil)
	bm := mat.NewDense(int(kk), int(nn), nil)
	var cm mat.Dense
	for bi := int64(0); bi < batchCount; bi++ {
		aBatch.Locate(bi, loc)
		aOff := loc[0] * mm * kk
		bOff := loc[1] * kk * nn
		for i := int64(0); i < mm*kk; i++ {
			v, ok := tensor.ReadScalar(dt, a.Data(), aOff+i)
			if !ok {
				ans.Free()
				return
			}
			am.RawMatrix().Data[i] = v
		}
		for i := int64(0); i < kk*nn; i++ {
			v, ok := tensor.ReadScalar(dt, b.Data(), bOff+i)
			if !ok {
				ans.Free()
				return
			}
			bm.RawMatrix().Data[i] = v
		}
		cm.Mul(am, bm)
		cOff := bi * mm * nn
		raw := cm.RawMatrix()
		for i := int64(0); i < mm*nn; i++ {
			if !tensor.WriteScalar(dt, dst, cOff+i, raw.Data[i]) {
				ans.Free()
				return
			}
		}
	}
}

// inferGemm: 2-D general matrix multiply with optional broadcast bias.
func inferGemm(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) != 2 && len(inputs) != 3 {
		return nil, fmt.Errorf("%w: Gemm takes 2 or 3 inputs, got %d",
			op.ErrShapeMismatch, len(inputs))
	}
	a, b := inputs[0], inputs[1]
	if !a.DataType.IsNumeric() || b.DataType != a.DataType {
		return nil, fmt.Errorf("%w: %s and %s for Gemm", op.ErrTypeUnsupported, a.DataType, b.DataType)
	}
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, fmt.Errorf("%w: Gemm ranks %d and %d", op.ErrShapeMismatch, a.Rank(), b.Rank())
	}
	transA, err := attrInt(o, "transA", 0)
	if err != nil {
		return nil, err
	}
	transB, err := attrInt(o, "transB", 0)
	if err != nil {
		return nil, err
	}

	m, ka := a.Shape[0], a.Shape[1]
	if transA != 0 {
		m, ka = ka, m
	}
	kb, n := b.Shape[0], b.Shape[1]
	if transB != 0 {
		kb, n = n, kb
	}
	if !ka.Equal(kb) {
		va, okA := ka.Value()
		vb, okB := kb.Value()
		if okA && okB && va != vb {
			return nil, fmt.Errorf("%w: Gemm contraction %d vs %d", op.ErrShapeMismatch, va, vb)
		}
		if !okA {
			return nil, &op.UnknownVariableError{Name: ka.Variable().Name}
		}
		if !okB {
			return nil, &op.UnknownVariableError{Name: kb.Variable().Name}
		}
	}
	if len(inputs) == 3 {
		if _, err := multidirBroadcast(inputs[2].Shape, tensor.Shape{m, n}); err != nil {
			return nil, err
		}
	}

	ans := tensor.New(a.DataType, tensor.Shape{m, n})
	if shouldCalculate(inputs, ans.Shape) {
		foldGemm(o, ans, inputs, transA != 0, transB != 0)
	}
	return []*tensor.Tensor{ans}, nil
}

func foldGemm(o *op.Operator, ans *tensor.Tensor, inputs []*tensor.Tensor, transA, transB bool) {
	alpha, err := attrFloat(o, "alpha", 1)
	if err != nil {
		return
	}
	beta, err := attrFloat(o, "beta", 1)
	if err != nil {
		return
	}
	a, b := inputs[0], inputs[1]
	aDims, _ := a.Shape.Values()
	bDims, _ := b.Shape.Values()

	am := denseOf(a, aDims)
	bm := denseOf(b, bDims)
	if am == nil || bm == nil {
		return
	}
	var left, right mat.Matrix = am, bm
	if transA {
		left = am.T()
	}
	if transB {
		right = bm.T()
	}
	var cm mat.Dense
	cm.Mul(left, right)
	cm.Scale(alpha, &cm)

	dst, err := ans.Malloc()
	if err != nil {
		return
	}
	outDims, _ := ans.Shape.Values()
	dt := ans.DataType

	var bias *tensor.Tensor
	var biasDims []int64
	var biasPlan *broadcast.Broadcaster
	if len(inputs) == 3 {
		bias = inputs[2]
		biasDims, _ = bias.Shape.Values()
		biasPlan, err = broadcast.New(biasDims, outDims)
		if err != nil {
			ans.Free()
			return
		}
	}

	loc := make([]int64, 2)
	for i := int64(0); i < outDims[0]*outDims[1]; i++ {
		v := cm.RawMatrix().Data[i]
		if bias != nil {
			biasPlan.Locate(i, loc)
			bv, ok := tensor.ReadScalar(bias.DataType, bias.Data(), loc[0])
			if !ok {
				ans.Free()
				return
			}
			v += beta * bv
		}
		if !tensor.WriteScalar(dt, dst, i, v) {
			ans.Free()
			return
		}
	}
}

func denseOf(t *tensor.Tensor, dims []int64) *mat.Dense {
	data := make([]float64, dims[0]*dims[1])
	for i := range data {
		v, ok := tensor.ReadScalar(t.DataType, t.Data(), int64(i))
		if !ok {
			return nil
		}
		data[i] = v
	}
	return mat.NewDense(int(dims[0]), int(dims[1]), data)
}
