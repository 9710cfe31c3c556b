package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

func TestReshapeConcrete(t *testing.T) {
	data := i32T(t, []int64{2, 3}, []int32{1, 2, 3, 4, 5, 6})
	target := i64T(t, []int64{2}, []int64{3, 2})

	outs, err := inferReshape(opOf(t, "onnx::Reshape", nil), []*tensor.Tensor{data, target})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, dims(t, outs[0]))
	// Reshape reuses the input buffer.
	assert.Equal(t, []int32{1, 2, 3, 4, 5, 6}, i32Values(t, outs[0]))
}

func TestReshapeInferMinusOne(t *testing.T) {
	data := i32T(t, []int64{2, 6}, make([]int32, 12))
	target := i64T(t, []int64{2}, []int64{4, -1})

	outs, err := inferReshape(opOf(t, "onnx::Reshape", nil), []*tensor.Tensor{data, target})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3}, dims(t, outs[0]))
}

func TestReshapeZeroCopiesDim(t *testing.T) {
	data := i32T(t, []int64{2, 6}, make([]int32, 12))
	target := i64T(t, []int64{2}, []int64{0, 6})

	outs, err := inferReshape(opOf(t, "onnx::Reshape", nil), []*tensor.Tensor{data, target})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 6}, dims(t, outs[0]))
}

func TestReshapeElementMismatch(t *testing.T) {
	data := i32T(t, []int64{2, 3}, make([]int32, 6))
	target := i64T(t, []int64{2}, []int64{4, 2})
	_, err := inferReshape(opOf(t, "onnx::Reshape", nil), []*tensor.Tensor{data, target})
	assert.ErrorIs(t, err, op.ErrShapeMismatch)
}

func TestReshapeUnboundVariable(t *testing.T) {
	data := tensor.New(tensor.F32, tensor.Shape{
		tensor.DimVar("N"), tensor.DimOf(3), tensor.DimOf(224), tensor.DimOf(224)})
	target := i64T(t, []int64{2}, []int64{-1, 150528})

	_, err := inferReshape(opOf(t, "onnx::Reshape", nil), []*tensor.Tensor{data, target})
	uv, ok := op.AsUnknownVariable(err)
	require.True(t, ok)
	assert.Equal(t, "N", uv.Name)
}

func TestSqueezeAllOnes(t *testing.T) {
	data := i32T(t, []int64{1, 3, 1}, []int32{1, 2, 3})
	outs, err := inferSqueeze(opOf(t, "onnx::Squeeze", nil), []*tensor.Tensor{data})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, dims(t, outs[0]))
	assert.Equal(t, []int32{1, 2, 3}, i32Values(t, outs[0]))
}

func TestSqueezeExplicitAxes(t *testing.T) {
	data := i32T(t, []int64{1, 3, 1}, []int32{1, 2, 3})
	axes := i64T(t, []int64{1}, []int64{-1})
	outs, err := inferSqueeze(opOf(t, "onnx::Squeeze", nil), []*tensor.Tensor{data, axes})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, dims(t, outs[0]))

	bad := i64T(t, []int64{1}, []int64{1})
	_, err = inferSqueeze(opOf(t, "onnx::Squeeze", nil), []*tensor.Tensor{data, bad})
	assert.ErrorIs(t, err, op.ErrShapeMismatch)
}

func TestUnsqueeze(t *testing.T) {
	data := i32T(t, []int64{2, 3}, make([]int32, 6))
	axes := i64T(t, []int64{2}, []int64{0, 3})
	outs, err := inferUnsqueeze(opOf(t, "onnx::Unsqueeze", nil), []*tensor.Tensor{data, axes})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 1}, dims(t, outs[0]))
}
