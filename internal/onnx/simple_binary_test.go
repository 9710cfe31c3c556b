package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

func TestAddBroadcastFold(t *testing.T) {
	a := i32T(t, []int64{3}, []int32{1, 2, 3})
	b := i32T(t, []int64{2, 1}, []int32{10, 20})

	outs, err := inferArithmetic(opOf(t, "onnx::Add", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, []int64{2, 3}, dims(t, outs[0]))
	assert.Equal(t, []int32{11, 12, 13, 21, 22, 23}, i32Values(t, outs[0]))
}

func TestSubMulDivFold(t *testing.T) {
	a := i32T(t, []int64{4}, []int32{10, 9, 8, 7})
	b := i32T(t, []int64{4}, []int32{3, 3, 2, 2})

	outs, err := inferArithmetic(opOf(t, "onnx::Sub", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 6, 6, 5}, i32Values(t, outs[0]))

	outs, err = inferArithmetic(opOf(t, "onnx::Mul", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int32{30, 27, 16, 14}, i32Values(t, outs[0]))

	// Integer division truncates toward zero.
	outs, err = inferArithmetic(opOf(t, "onnx::Div", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 3, 4, 3}, i32Values(t, outs[0]))
}

func TestNarrowSignedIntFold(t *testing.T) {
	// I8 and I16 fold like every other signed type.
	a8 := i8T(t, []int64{3}, []int8{1, 2, 3})
	b8 := i8T(t, []int64{2, 1}, []int8{10, -20})

	outs, err := inferArithmetic(opOf(t, "onnx::Add", nil), []*tensor.Tensor{a8, b8})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, dims(t, outs[0]))
	assert.Equal(t, []int64{11, 12, 13, -19, -18, -17}, intValues(t, outs[0]))

	a16 := i16T(t, []int64{4}, []int16{100, -9, 8, 7})
	b16 := i16T(t, []int64{4}, []int16{3, 3, -2, 2})

	outs, err = inferArithmetic(opOf(t, "onnx::Mul", nil), []*tensor.Tensor{a16, b16})
	require.NoError(t, err)
	assert.Equal(t, []int64{300, -27, -16, 14}, intValues(t, outs[0]))

	outs, err = inferArithmetic(opOf(t, "onnx::Div", nil), []*tensor.Tensor{a16, b16})
	require.NoError(t, err)
	assert.Equal(t, []int64{33, -3, -4, 3}, intValues(t, outs[0]))
}

func TestDivByZeroDegradesToShapeOnly(t *testing.T) {
	a := i32T(t, []int64{2}, []int32{1, 2})
	b := i32T(t, []int64{2}, []int32{1, 0})

	outs, err := inferArithmetic(opOf(t, "onnx::Div", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, dims(t, outs[0]))
	assert.False(t, outs[0].HasData())
}

func TestArithmeticRejectsMixedTypes(t *testing.T) {
	a := i32T(t, []int64{2}, []int32{1, 2})
	b := i64T(t, []int64{2}, []int64{1, 2})
	_, err := inferArithmetic(opOf(t, "onnx::Add", nil), []*tensor.Tensor{a, b})
	assert.ErrorIs(t, err, op.ErrTypeUnsupported)
}

func TestArithmeticSymbolicShapes(t *testing.T) {
	n := tensor.NewDimVariable("N")
	a := tensor.New(tensor.F32, tensor.Shape{tensor.DimOfVar(n), tensor.DimOf(3)})
	b := tensor.New(tensor.F32, tensor.Shape{tensor.DimOfVar(n), tensor.DimOf(3)})

	outs, err := inferArithmetic(opOf(t, "onnx::Add", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, n, outs[0].Shape[0].Variable())
	assert.False(t, outs[0].HasData())
}

func TestArithmeticUnknownVariableOnMixedBroadcast(t *testing.T) {
	a := tensor.New(tensor.F32, tensor.Shape{tensor.DimVar("N")})
	b := tensor.New(tensor.F32, tensor.ShapeOf(3))
	_, err := inferArithmetic(opOf(t, "onnx::Add", nil), []*tensor.Tensor{a, b})
	uv, ok := op.AsUnknownVariable(err)
	require.True(t, ok)
	assert.Equal(t, "N", uv.Name)
}

func TestFloatFold(t *testing.T) {
	a := f32T(t, []int64{2}, []float32{1.5, -2})
	b := f32T(t, []int64{2}, []float32{0.5, 4})
	outs, err := inferArithmetic(opOf(t, "onnx::Add", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2}, f32Values(t, outs[0]))
}

func TestLogicFold(t *testing.T) {
	a, err := tensor.NewData(tensor.Bool, tensor.ShapeOf(4), []byte{1, 1, 0, 0})
	require.NoError(t, err)
	b, err := tensor.NewData(tensor.Bool, tensor.ShapeOf(4), []byte{1, 0, 1, 0})
	require.NoError(t, err)

	outs, err := inferLogic(opOf(t, "onnx::Xor", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, boolValues(t, outs[0]))

	outs, err = inferLogic(opOf(t, "onnx::And", nil), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false}, boolValues(t, outs[0]))

	_, err = inferLogic(opOf(t, "onnx::Or", nil), []*tensor.Tensor{a, i32T(t, []int64{4}, []int32{0, 1, 0, 1})})
	assert.ErrorIs(t, err, op.ErrTypeUnsupported)
}
