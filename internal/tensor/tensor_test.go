package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataValidatesSize(t *testing.T) {
	_, err := NewData(I32, ShapeOf(2, 3), make([]byte, 24))
	require.NoError(t, err)

	_, err = NewData(I32, ShapeOf(2, 3), make([]byte, 23))
	assert.Error(t, err)

	_, err = NewData(I32, Shape{DimVar("N")}, make([]byte, 4))
	assert.Error(t, err)
}

func TestTensorSizes(t *testing.T) {
	x := New(F64, ShapeOf(2, 5))
	assert.Equal(t, 2, x.Rank())
	n, err := x.ElementsSize()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	b, err := x.BytesSize()
	require.NoError(t, err)
	assert.Equal(t, int64(80), b)

	sym := New(F32, Shape{DimVar("N")})
	_, err = sym.ElementsSize()
	assert.Error(t, err)
}

func TestMallocFree(t *testing.T) {
	x := New(U8, ShapeOf(3))
	assert.False(t, x.HasData())
	buf, err := x.Malloc()
	require.NoError(t, err)
	assert.Len(t, buf, 3)
	assert.True(t, x.HasData())
	x.Free()
	assert.False(t, x.HasData())
}

func TestDepVariables(t *testing.T) {
	n := NewDimVariable("N")
	x := New(F32, Shape{DimOfVar(n), DimOf(3)})
	_, ok := x.DepVariables()[n]
	assert.True(t, ok)

	canonical := NewDimVariable("N")
	x.ReplaceVariable(n, canonical)
	assert.Equal(t, canonical, x.Shape[0].Variable())
	_, ok = x.DepVariables()[n]
	assert.False(t, ok)
}

func TestScalarRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	require.True(t, WriteFloat(FP16, buf, 0, 1.5))
	v, ok := ReadFloat(FP16, buf, 0)
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	require.True(t, WriteFloat(BF16, buf, 1, -2.0))
	v, ok = ReadFloat(BF16, buf, 1)
	require.True(t, ok)
	assert.Equal(t, -2.0, v)

	require.True(t, WriteInt(I16, buf, 0, -300))
	i, ok := ReadInt(I16, buf, 0)
	require.True(t, ok)
	assert.Equal(t, int64(-300), i)

	require.True(t, WriteUint(U32, buf, 0, 4000000000))
	u, ok := ReadUint(U32, buf, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(4000000000), u)
}
