package onnx

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// Test helpers shared by the per-operator tests.

func opOf(t *testing.T, name string, attrs map[string]op.Attribute) *op.Operator {
	t.Helper()
	require.NoError(t, Register())
	return op.NewOperator(op.MustParse(name), attrs)
}

func i32T(t *testing.T, dims []int64, values []int32) *tensor.Tensor {
	t.Helper()
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	x, err := tensor.NewData(tensor.I32, tensor.ShapeOf(dims...), buf)
	require.NoError(t, err)
	return x
}

func i8T(t *testing.T, dims []int64, values []int8) *tensor.Tensor {
	t.Helper()
	buf := make([]byte, len(values))
	for i, v := range values {
		buf[i] = byte(v)
	}
	x, err := tensor.NewData(tensor.I8, tensor.ShapeOf(dims...), buf)
	require.NoError(t, err)
	return x
}

func i16T(t *testing.T, dims []int64, values []int16) *tensor.Tensor {
	t.Helper()
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	x, err := tensor.NewData(tensor.I16, tensor.ShapeOf(dims...), buf)
	require.NoError(t, err)
	return x
}

func i64T(t *testing.T, dims []int64, values []int64) *tensor.Tensor {
	t.Helper()
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	x, err := tensor.NewData(tensor.I64, tensor.ShapeOf(dims...), buf)
	require.NoError(t, err)
	return x
}

func f32T(t *testing.T, dims []int64, values []float32) *tensor.Tensor {
	t.Helper()
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	x, err := tensor.NewData(tensor.F32, tensor.ShapeOf(dims...), buf)
	require.NoError(t, err)
	return x
}

func i32Values(t *testing.T, x *tensor.Tensor) []int32 {
	t.Helper()
	require.Equal(t, tensor.I32, x.DataType)
	require.True(t, x.HasData())
	n, err := x.ElementsSize()
	require.NoError(t, err)
	out := make([]int32, n)
	for i := range out {
		v, _ := tensor.ReadInt(tensor.I32, x.Data(), int64(i))
		out[i] = int32(v)
	}
	return out
}

func intValues(t *testing.T, x *tensor.Tensor) []int64 {
	t.Helper()
	require.True(t, x.HasData())
	n, err := x.ElementsSize()
	require.NoError(t, err)
	out := make([]int64, n)
	for i := range out {
		v, ok := tensor.ReadInt(x.DataType, x.Data(), int64(i))
		require.True(t, ok, "not a signed integer tensor: %s", x.DataType)
		out[i] = v
	}
	return out
}

func f32Values(t *testing.T, x *tensor.Tensor) []float32 {
	t.Helper()
	require.Equal(t, tensor.F32, x.DataType)
	require.True(t, x.HasData())
	n, err := x.ElementsSize()
	require.NoError(t, err)
	out := make([]float32, n)
	for i := range out {
		v, _ := tensor.ReadFloat(tensor.F32, x.Data(), int64(i))
		out[i] = float32(v)
	}
	return out
}

func boolValues(t *testing.T, x *tensor.Tensor) []bool {
	t.Helper()
	require.Equal(t, tensor.Bool, x.DataType)
	require.True(t, x.HasData())
	n, err := x.ElementsSize()
	require.NoError(t, err)
	out := make([]bool, n)
	for i := range out {
		out[i] = tensor.ReadBool(x.Data(), int64(i))
	}
	return out
}

func dims(t *testing.T, x *tensor.Tensor) []int64 {
	t.Helper()
	d, ok := x.Shape.Values()
	require.True(t, ok, "shape %s is not concrete", x.Shape.Format())
	return d
}
