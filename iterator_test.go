package bptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorEmptyTree(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	it, err := tree.Begin()
	require.NoError(t, err)
	assert.True(t, it.IsEnd())
}

func TestIteratorForwardScan(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t, WithLeafMaxSize(4), WithInternalMaxSize(4))
	for i := 1; i <= 20; i++ {
		_, err := tree.Insert(intKey(i), RID{PageID: uint32(i)}, nil)
		require.NoError(t, err)
	}

	it, err := tree.Begin()
	require.NoError(t, err)
	defer it.Close()

	var got []int
	for !it.IsEnd() {
		got = append(got, decodeIntKey(it.Key()))
		require.NoError(t, it.Next())
	}

	want := make([]int, 20)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, got)
}

func TestIteratorBeginAtPositionsAtFirstKeyGreaterOrEqual(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t, WithLeafMaxSize(4), WithInternalMaxSize(4))
	for _, k := range []int{1, 2, 4, 5, 7} {
		_, err := tree.Insert(intKey(k), RID{PageID: uint32(k)}, nil)
		require.NoError(t, err)
	}

	it, err := tree.BeginAt(intKey(3))
	require.NoError(t, err)
	defer it.Close()

	require.False(t, it.IsEnd())
	assert.Equal(t, 4, decodeIntKey(it.Key()))
}

func TestIteratorBeginAtPastEndIsEnd(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t, WithLeafMaxSize(4), WithInternalMaxSize(4))
	_, err := tree.Insert(intKey(1), RID{PageID: 1}, nil)
	require.NoError(t, err)

	it, err := tree.BeginAt(intKey(100))
	require.NoError(t, err)
	assert.True(t, it.IsEnd())
}

func TestIteratorEndIsO1Sentinel(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	_, err := tree.Insert(intKey(1), RID{PageID: 1}, nil)
	require.NoError(t, err)

	end := tree.End()
	assert.True(t, end.IsEnd())

	tree.bpm.mu.Lock()
	for _, fr := range tree.bpm.frames {
		assert.Equal(t, 0, fr.pinCount, "End() must not pin any page")
	}
	tree.bpm.mu.Unlock()
}

func TestIteratorCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	_, err := tree.Insert(intKey(1), RID{PageID: 1}, nil)
	require.NoError(t, err)

	it, err := tree.Begin()
	require.NoError(t, err)
	it.Close()
	assert.NotPanics(t, func() { it.Close() })
}
