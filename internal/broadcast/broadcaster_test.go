package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterCollapse(t *testing.T) {
	// Adjacent dimensions sharing one broadcast pattern merge into runs:
	// {2,3} | {4 vs 1} | {5,6} gives exactly three stride rows.
	b, err := New([]int64{2, 3, 4, 5, 6}, []int64{2, 3, 1, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 3, b.Rows())
	assert.Equal(t, int64(720), b.OutputsCount)
}

func TestBroadcasterNoBroadcast(t *testing.T) {
	b, err := New([]int64{2, 3}, []int64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Rows())
	assert.Equal(t, int64(6), b.OutputsCount)

	out := make([]int64, 2)
	b.Locate(5, out)
	assert.Equal(t, []int64{5, 5}, out)
}

func TestBroadcasterMismatch(t *testing.T) {
	_, err := New([]int64{2, 3}, []int64{2, 4})
	assert.Error(t, err)
}

func TestBroadcasterScalar(t *testing.T) {
	b, err := New([]int64{}, []int64{})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Rows())
	assert.Equal(t, int64(1), b.OutputsCount)
}

func TestBroadcasterAllOnes(t *testing.T) {
	b, err := New([]int64{1, 1}, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Rows())
	assert.Equal(t, int64(1), b.OutputsCount)
}

func TestLocateCoversEveryInputPosition(t *testing.T) {
	// [3] against [2,1]: output [2,3]; decoded offsets stay in range and
	// every (a, b) offset pair is decoded exactly once.
	b, err := New([]int64{3}, []int64{2, 1})
	require.NoError(t, err)
	require.Equal(t, int64(6), b.OutputsCount)

	seen := make(map[[2]int64]int)
	out := make([]int64, 2)
	for k := int64(0); k < b.OutputsCount; k++ {
		b.Locate(k, out)
		assert.Less(t, out[0], int64(3))
		assert.Less(t, out[1], int64(2))
		seen[[2]int64{out[0], out[1]}]++
	}
	// Every (a, b) offset pair appears exactly once.
	assert.Len(t, seen, 6)
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
}

func TestLocateAgainstReferenceIndexing(t *testing.T) {
	aDims := []int64{2, 1, 4}
	bDims := []int64{2, 3, 1}
	plan, err := New(aDims, bDims)
	require.NoError(t, err)
	require.Equal(t, int64(24), plan.OutputsCount)

	out := make([]int64, 2)
	k := int64(0)
	for i := int64(0); i < 2; i++ {
		for j := int64(0); j < 3; j++ {
			for l := int64(0); l < 4; l++ {
				plan.Locate(k, out)
				assert.Equal(t, i*4+l, out[0], "a offset at k=%d", k)
				assert.Equal(t, i*3+j, out[1], "b offset at k=%d", k)
				k++
			}
		}
	}
}

func TestBroadcasterNoInputs(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}
