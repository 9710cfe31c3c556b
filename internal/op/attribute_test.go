package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/tensor"
)

func TestAttributeAccessors(t *testing.T) {
	a := AttrInt(7)
	v, err := a.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	_, err = a.Float()
	assert.Error(t, err)
	var typeErr *ErrAttributeType
	assert.ErrorAs(t, err, &typeErr)

	s := AttrString("axis")
	str, err := s.String()
	require.NoError(t, err)
	assert.Equal(t, "axis", str)
	_, err = s.Strings()
	assert.Error(t, err)
}

func TestAttributeEquality(t *testing.T) {
	assert.True(t, AttrInt(1).Equal(AttrInt(1)))
	assert.False(t, AttrInt(1).Equal(AttrInt(2)))
	// Cross-kind comparison is always false, even for equal-looking values.
	assert.False(t, AttrInt(1).Equal(AttrFloat(1)))

	assert.True(t, AttrInts([]int64{1, 2}).Equal(AttrInts([]int64{1, 2})))
	assert.False(t, AttrInts([]int64{1, 2}).Equal(AttrInts([]int64{1})))

	x := tensor.New(tensor.F32, tensor.ShapeOf(2))
	y := tensor.New(tensor.F32, tensor.ShapeOf(2))
	assert.True(t, AttrTensor(x).Equal(AttrTensor(y)))
	z := tensor.New(tensor.I32, tensor.ShapeOf(2))
	assert.False(t, AttrTensor(x).Equal(AttrTensor(z)))
}

func TestOperatorEquality(t *testing.T) {
	require.NoError(t, Register("test::EqA", nil, nil))
	require.NoError(t, Register("test::EqB", nil, nil))
	ta := MustParse("test::EqA")
	tb := MustParse("test::EqB")

	x := NewOperator(ta, map[string]Attribute{"axis": AttrInt(1)})
	y := NewOperator(ta, map[string]Attribute{"axis": AttrInt(1)})
	z := NewOperator(ta, map[string]Attribute{"axis": AttrInt(2)})
	w := NewOperator(tb, map[string]Attribute{"axis": AttrInt(1)})

	assert.True(t, x.Equal(y))
	assert.False(t, x.Equal(z))
	assert.False(t, x.Equal(w))
}

func TestOperatorAttributeLookup(t *testing.T) {
	require.NoError(t, Register("test::Lookup", nil, nil))
	o := NewOperator(MustParse("test::Lookup"), map[string]Attribute{"axis": AttrInt(3)})

	a, err := o.Attribute("axis")
	require.NoError(t, err)
	v, _ := a.Int()
	assert.Equal(t, int64(3), v)

	_, err = o.Attribute("missing")
	assert.ErrorIs(t, err, ErrAttributeMissing)

	def := o.AttributeOr("missing", AttrInt(0))
	v, _ = def.Int()
	assert.Equal(t, int64(0), v)
}
