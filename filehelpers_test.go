package bptree

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempIntFile(t *testing.T, contents string) string {
	t.Helper()
	f, err := os.CreateTemp("", "bptree_filehelpers_*.txt")
	require.NoError(t, err)
	_, err = f.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestInsertFromFile(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t, WithLeafMaxSize(4), WithInternalMaxSize(4))
	path := writeTempIntFile(t, "3 1 4 1 5 9 2 6")

	require.NoError(t, tree.InsertFromFile(path))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 9}, scan(t, tree))
	require.NoError(t, tree.Check())
}

func TestRemoveFromFile(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t, WithLeafMaxSize(4), WithInternalMaxSize(4))
	require.NoError(t, tree.InsertFromFile(writeTempIntFile(t, "1 2 3 4 5 6 7 8")))

	require.NoError(t, tree.RemoveFromFile(writeTempIntFile(t, "2 4 6")))

	assert.Equal(t, []int{1, 3, 5, 7, 8}, scan(t, tree))
	require.NoError(t, tree.Check())
}

func TestInsertFromFileWhitespaceSeparators(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	path := writeTempIntFile(t, "  1\n2\t3\n\n4  ")

	require.NoError(t, tree.InsertFromFile(path))
	assert.Equal(t, []int{1, 2, 3, 4}, scan(t, tree))
}

func TestEncodeIntKeyPreservesNumericOrder(t *testing.T) {
	t.Parallel()

	cmp := ByteComparator{}
	assert.Less(t, cmp.Compare(encodeIntKey(1, 8), encodeIntKey(2, 8)), 0)
	assert.Less(t, cmp.Compare(encodeIntKey(99, 8), encodeIntKey(100, 8)), 0)
	assert.Equal(t, 0, cmp.Compare(encodeIntKey(42, 8), encodeIntKey(42, 8)))
}
