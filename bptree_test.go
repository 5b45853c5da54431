package bptree

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestTree opens a fresh file-backed tree in a temp file, matching the
// teacher's db_test.go setup helper: a scratch file named after the test,
// removed on cleanup.
func newTestTree(t *testing.T, opts ...Option) *Tree {
	path := fmt.Sprintf("/tmp/test_bptree_%s.db", t.Name())
	_ = os.Remove(path)

	storage, err := OpenFileStorage(path)
	require.NoError(t, err, "failed to open storage")

	bpm, err := NewBufferPoolManager(storage, 64, DefaultKeySize, DiscardLogger{})
	require.NoError(t, err, "failed to create buffer pool")

	tree, err := NewTree("test", bpm, opts...)
	require.NoError(t, err, "failed to create tree")

	t.Cleanup(func() {
		_ = tree.Close()
		_ = os.Remove(path)
	})

	return tree
}

// intKey encodes n as an 8-byte big-endian key, so lexicographic order
// matches numeric order (filehelpers.go uses the same encoding).
func intKey(n int) []byte {
	return encodeIntKey(int64(n), DefaultKeySize)
}
