package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

func TestMaxPoolShape(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.ShapeOf(1, 3, 32, 32))
	outs, err := inferPool(
		opOf(t, "onnx::MaxPool", map[string]op.Attribute{
			"kernel_shape": op.AttrInts([]int64{2, 2}),
			"strides":      op.AttrInts([]int64{2, 2}),
		}),
		[]*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 16, 16}, dims(t, outs[0]))
}

func TestAveragePoolPadsAndCeil(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.ShapeOf(1, 1, 5, 5))
	outs, err := inferPool(
		opOf(t, "onnx::AveragePool", map[string]op.Attribute{
			"kernel_shape": op.AttrInts([]int64{3, 3}),
			"strides":      op.AttrInts([]int64{2, 2}),
			"pads":         op.AttrInts([]int64{1, 1, 1, 1}),
			"ceil_mode":    op.AttrInt(1),
		}),
		[]*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 3, 3}, dims(t, outs[0]))
}

func TestPoolSymbolicBatch(t *testing.T) {
	n := tensor.NewDimVariable("N")
	x := tensor.New(tensor.F32, tensor.Shape{
		tensor.DimOfVar(n), tensor.DimOf(3), tensor.DimOf(8), tensor.DimOf(8)})
	outs, err := inferPool(
		opOf(t, "onnx::MaxPool", map[string]op.Attribute{
			"kernel_shape": op.AttrInts([]int64{2, 2}),
			"strides":      op.AttrInts([]int64{2, 2}),
		}),
		[]*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, n, outs[0].Shape[0].Variable())
	v, _ := outs[0].Shape[2].Value()
	assert.Equal(t, int64(4), v)
}

func TestGlobalPoolShape(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.ShapeOf(2, 8, 7, 7))
	outs, err := inferGlobalPool(opOf(t, "onnx::GlobalAveragePool", nil), []*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 8, 1, 1}, dims(t, outs[0]))
}

func TestConvShape(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.ShapeOf(1, 3, 224, 224))
	w := tensor.New(tensor.F32, tensor.ShapeOf(64, 3, 7, 7))
	outs, err := inferConv(
		opOf(t, "onnx::Conv", map[string]op.Attribute{
			"strides": op.AttrInts([]int64{2, 2}),
			"pads":    op.AttrInts([]int64{3, 3, 3, 3}),
		}),
		[]*tensor.Tensor{x, w})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 64, 112, 112}, dims(t, outs[0]))
}

func TestConvGroupChannelMismatch(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.ShapeOf(1, 4, 8, 8))
	w := tensor.New(tensor.F32, tensor.ShapeOf(8, 3, 3, 3))
	_, err := inferConv(opOf(t, "onnx::Conv", nil), []*tensor.Tensor{x, w})
	assert.ErrorIs(t, err, op.ErrShapeMismatch)
}

func TestBatchNormalizationShape(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.ShapeOf(2, 4, 8, 8))
	param := func() *tensor.Tensor { return tensor.New(tensor.F32, tensor.ShapeOf(4)) }
	outs, err := inferBatchNormalization(opOf(t, "onnx::BatchNormalization", nil),
		[]*tensor.Tensor{x, param(), param(), param(), param()})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 8, 8}, dims(t, outs[0]))

	bad := tensor.New(tensor.F32, tensor.ShapeOf(5))
	_, err = inferBatchNormalization(opOf(t, "onnx::BatchNormalization", nil),
		[]*tensor.Tensor{x, bad, param(), param(), param()})
	assert.ErrorIs(t, err, op.ErrShapeMismatch)
}

func TestSoftmaxShape(t *testing.T) {
	x := tensor.New(tensor.F32, tensor.ShapeOf(2, 10))
	outs, err := inferSoftmax(opOf(t, "onnx::Softmax", nil), []*tensor.Tensor{x})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 10}, dims(t, outs[0]))

	_, err = inferSoftmax(
		opOf(t, "onnx::Softmax", map[string]op.Attribute{"axis": op.AttrInt(5)}),
		[]*tensor.Tensor{x})
	assert.ErrorIs(t, err, op.ErrShapeMismatch)
}

func TestEinsumMatrixProduct(t *testing.T) {
	a := tensor.New(tensor.F32, tensor.ShapeOf(2, 3))
	b := tensor.New(tensor.F32, tensor.ShapeOf(3, 4))
	outs, err := inferEinsum(
		opOf(t, "onnx::Einsum", map[string]op.Attribute{"equation": op.AttrString("ij,jk->ik")}),
		[]*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, dims(t, outs[0]))
}

func TestEinsumImpliedOutput(t *testing.T) {
	a := tensor.New(tensor.F32, tensor.ShapeOf(2, 3))
	b := tensor.New(tensor.F32, tensor.ShapeOf(3))
	// "ij,j": j is summed, output is [i].
	outs, err := inferEinsum(
		opOf(t, "onnx::Einsum", map[string]op.Attribute{"equation": op.AttrString("ij,j")}),
		[]*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, dims(t, outs[0]))
}

func TestEinsumEllipsis(t *testing.T) {
	a := tensor.New(tensor.F32, tensor.ShapeOf(5, 2, 3))
	b := tensor.New(tensor.F32, tensor.ShapeOf(5, 3, 4))
	outs, err := inferEinsum(
		opOf(t, "onnx::Einsum", map[string]op.Attribute{"equation": op.AttrString("...ij,...jk->...ik")}),
		[]*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 2, 4}, dims(t, outs[0]))
}

func TestEinsumDimConflict(t *testing.T) {
	a := tensor.New(tensor.F32, tensor.ShapeOf(2, 3))
	b := tensor.New(tensor.F32, tensor.ShapeOf(4, 5))
	_, err := inferEinsum(
		opOf(t, "onnx::Einsum", map[string]op.Attribute{"equation": op.AttrString("ij,jk->ik")}),
		[]*tensor.Tensor{a, b})
	assert.ErrorIs(t, err, op.ErrShapeMismatch)
}

func TestConstantValueTensor(t *testing.T) {
	v := i32T(t, []int64{2}, []int32{3, 4})
	outs, err := inferConstant(
		opOf(t, "onnx::Constant", map[string]op.Attribute{"value": op.AttrTensor(v)}), nil)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 4}, i32Values(t, outs[0]))

	_, err = inferConstant(opOf(t, "onnx::Constant", nil), nil)
	assert.ErrorIs(t, err, op.ErrAttributeMissing)
}

func TestConstantOfShapeFill(t *testing.T) {
	shape := i64T(t, []int64{2}, []int64{2, 2})
	fill := i32T(t, []int64{1}, []int32{7})
	outs, err := inferConstantOfShape(
		opOf(t, "onnx::ConstantOfShape", map[string]op.Attribute{"value": op.AttrTensor(fill)}),
		[]*tensor.Tensor{shape})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 2}, dims(t, outs[0]))
	assert.Equal(t, []int32{7, 7, 7, 7}, i32Values(t, outs[0]))
}

func TestConstantOfShapeDefaultsToF32Zero(t *testing.T) {
	shape := i64T(t, []int64{1}, []int64{3})
	outs, err := inferConstantOfShape(opOf(t, "onnx::ConstantOfShape", nil),
		[]*tensor.Tensor{shape})
	require.NoError(t, err)
	assert.Equal(t, tensor.F32, outs[0].DataType)
	assert.Equal(t, []float32{0, 0, 0}, f32Values(t, outs[0]))
}
