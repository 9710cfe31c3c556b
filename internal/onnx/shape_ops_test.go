package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

func TestConcatFold(t *testing.T) {
	a := i32T(t, []int64{2, 2}, []int32{1, 2, 3, 4})
	b := i32T(t, []int64{2, 1}, []int32{9, 8})

	outs, err := inferConcat(
		opOf(t, "onnx::Concat", map[string]op.Attribute{"axis": op.AttrInt(1)}),
		[]*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, dims(t, outs[0]))
	assert.Equal(t, []int32{1, 2, 9, 3, 4, 8}, i32Values(t, outs[0]))
}

func TestConcatDimensionMismatch(t *testing.T) {
	a := i32T(t, []int64{2, 2}, make([]int32, 4))
	b := i32T(t, []int64{3, 1}, make([]int32, 3))
	_, err := inferConcat(
		opOf(t, "onnx::Concat", map[string]op.Attribute{"axis": op.AttrInt(1)}),
		[]*tensor.Tensor{a, b})
	assert.ErrorIs(t, err, op.ErrShapeMismatch)
}

func TestTransposeFold(t *testing.T) {
	x := i32T(t, []int64{2, 3}, []int32{1, 2, 3, 4, 5, 6})
	outs, err := inferTranspose(opOf(t, "onnx::Transpose", nil), []*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, dims(t, outs[0]))
	assert.Equal(t, []int32{1, 4, 2, 5, 3, 6}, i32Values(t, outs[0]))
}

func TestTransposeWithPerm(t *testing.T) {
	x := i32T(t, []int64{1, 2, 3}, []int32{1, 2, 3, 4, 5, 6})
	outs, err := inferTranspose(
		opOf(t, "onnx::Transpose", map[string]op.Attribute{"perm": op.AttrInts([]int64{0, 2, 1})}),
		[]*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2}, dims(t, outs[0]))
	assert.Equal(t, []int32{1, 4, 2, 5, 3, 6}, i32Values(t, outs[0]))
}

func TestSliceFold(t *testing.T) {
	x := i32T(t, []int64{5}, []int32{0, 10, 20, 30, 40})
	starts := i64T(t, []int64{1}, []int64{1})
	ends := i64T(t, []int64{1}, []int64{4})

	outs, err := inferSlice(opOf(t, "onnx::Slice", nil), []*tensor.Tensor{x, starts, ends})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, dims(t, outs[0]))
	assert.Equal(t, []int32{10, 20, 30}, i32Values(t, outs[0]))
}

func TestSliceNegativeStep(t *testing.T) {
	x := i32T(t, []int64{4}, []int32{0, 1, 2, 3})
	starts := i64T(t, []int64{1}, []int64{3})
	ends := i64T(t, []int64{1}, []int64{-5})
	axes := i64T(t, []int64{1}, []int64{0})
	steps := i64T(t, []int64{1}, []int64{-2})

	outs, err := inferSlice(opOf(t, "onnx::Slice", nil),
		[]*tensor.Tensor{x, starts, ends, axes, steps})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, dims(t, outs[0]))
	assert.Equal(t, []int32{3, 1}, i32Values(t, outs[0]))
}

func TestTileFold(t *testing.T) {
	x := i32T(t, []int64{2}, []int32{7, 8})
	repeats := i64T(t, []int64{1}, []int64{3})
	outs, err := inferTile(opOf(t, "onnx::Tile", nil), []*tensor.Tensor{x, repeats})
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, dims(t, outs[0]))
	assert.Equal(t, []int32{7, 8, 7, 8, 7, 8}, i32Values(t, outs[0]))
}

func TestTilePreservesSymbolicDimOnUnitRepeat(t *testing.T) {
	n := tensor.NewDimVariable("N")
	x := tensor.New(tensor.F32, tensor.Shape{tensor.DimOfVar(n)})
	repeats := i64T(t, []int64{1}, []int64{1})
	outs, err := inferTile(opOf(t, "onnx::Tile", nil), []*tensor.Tensor{x, repeats})
	require.NoError(t, err)
	assert.Equal(t, n, outs[0].Shape[0].Variable())
}

func TestExpandFold(t *testing.T) {
	x := i32T(t, []int64{3}, []int32{1, 2, 3})
	target := i64T(t, []int64{2}, []int64{2, 3})
	outs, err := inferExpand(opOf(t, "onnx::Expand", nil), []*tensor.Tensor{x, target})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, dims(t, outs[0]))
	assert.Equal(t, []int32{1, 2, 3, 1, 2, 3}, i32Values(t, outs[0]))
}

func TestShapeOp(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.ShapeOf(2, 3, 5))
	outs, err := inferShape(opOf(t, "onnx::Shape", nil), []*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, tensor.I64, outs[0].DataType)
	require.True(t, outs[0].HasData())
	v0, _ := tensor.ReadInt(tensor.I64, outs[0].Data(), 0)
	v2, _ := tensor.ReadInt(tensor.I64, outs[0].Data(), 2)
	assert.Equal(t, int64(2), v0)
	assert.Equal(t, int64(5), v2)
}

func TestShapeOpUnboundVariable(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.Shape{tensor.DimVar("N"), tensor.DimOf(3)})
	_, err := inferShape(opOf(t, "onnx::Shape", nil), []*tensor.Tensor{x})
	_, ok := op.AsUnknownVariable(err)
	assert.True(t, ok)
}

func TestCastFold(t *testing.T) {
	x := f32T(t, []int64{3}, []float32{1.7, -2.4, 3})
	outs, err := inferCast(
		opOf(t, "onnx::Cast", map[string]op.Attribute{"to": op.AttrInt(int64(tensor.I32))}),
		[]*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, tensor.I32, outs[0].DataType)
	assert.Equal(t, []int32{1, -2, 3}, i32Values(t, outs[0]))
}

func TestSplitFold(t *testing.T) {
	x := i32T(t, []int64{4}, []int32{1, 2, 3, 4})
	outs, err := inferSplit(
		opOf(t, "onnx::Split", map[string]op.Attribute{"num_outputs": op.AttrInt(2)}),
		[]*tensor.Tensor{x})
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, []int32{1, 2}, i32Values(t, outs[0]))
	assert.Equal(t, []int32{3, 4}, i32Values(t, outs[1]))
}

func TestSplitSizesMustCoverDim(t *testing.T) {
	x := i32T(t, []int64{4}, make([]int32, 4))
	sizes := i64T(t, []int64{2}, []int64{1, 2})
	_, err := inferSplit(opOf(t, "onnx::Split", nil), []*tensor.Tensor{x, sizes})
	assert.ErrorIs(t, err, op.ErrShapeMismatch)
}
