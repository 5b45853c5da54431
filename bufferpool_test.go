package bptree

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) Storage {
	path := fmt.Sprintf("/tmp/test_bptree_bpm_%s.db", t.Name())
	_ = os.Remove(path)

	storage, err := OpenFileStorage(path)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = storage.Close()
		_ = os.Remove(path)
	})
	return storage
}

func TestBufferPoolNewFetchUnpinRoundTrip(t *testing.T) {
	t.Parallel()

	bpm, err := NewBufferPoolManager(newTestStorage(t), 16, 8, DiscardLogger{})
	require.NoError(t, err)

	node, err := bpm.NewPage(true, 4)
	require.NoError(t, err)
	id := node.PageID()
	assert.Equal(t, 1, bpm.frames[id].pinCount)

	bpm.UnpinPage(id, true)
	assert.Equal(t, 0, bpm.frames[id].pinCount)

	fetched, err := bpm.FetchPage(id)
	require.NoError(t, err)
	assert.Equal(t, id, fetched.PageID())
	assert.Equal(t, 1, bpm.frames[id].pinCount)
	bpm.UnpinPage(id, false)
}

func TestBufferPoolPinAccountingNetsToZero(t *testing.T) {
	t.Parallel()

	// A scenario on the real pool exercising NewPage, FetchPage and
	// UnpinPage: net pin-count change across the whole sequence must be
	// zero (§8 "Pin-accounting test").
	bpm, err := NewBufferPoolManager(newTestStorage(t), 16, 8, DiscardLogger{})
	require.NoError(t, err)

	a, err := bpm.NewPage(true, 4)
	require.NoError(t, err)
	aID := a.PageID()
	bpm.UnpinPage(aID, true)

	b, err := bpm.NewPage(true, 4)
	require.NoError(t, err)
	bID := b.PageID()
	bpm.UnpinPage(bID, true)

	for i := 0; i < 5; i++ {
		fetched, err := bpm.FetchPage(aID)
		require.NoError(t, err)
		assert.Equal(t, aID, fetched.PageID())
		bpm.UnpinPage(aID, false)
	}

	for id := range bpm.frames {
		assert.Equal(t, 0, bpm.frames[id].pinCount, "page %d has a nonzero pin count", id)
	}
}

func TestBufferPoolDeletePage(t *testing.T) {
	t.Parallel()

	bpm, err := NewBufferPoolManager(newTestStorage(t), 16, 8, DiscardLogger{})
	require.NoError(t, err)

	node, err := bpm.NewPage(true, 4)
	require.NoError(t, err)
	id := node.PageID()
	bpm.UnpinPage(id, false)

	require.NoError(t, bpm.DeletePage(id))
	_, ok := bpm.frames[id]
	assert.False(t, ok)
}

func TestBufferPoolEvictsUnpinnedFrameWhenFull(t *testing.T) {
	t.Parallel()

	bpm, err := NewBufferPoolManager(newTestStorage(t), 2, 8, DiscardLogger{})
	require.NoError(t, err)

	first, err := bpm.NewPage(true, 4)
	require.NoError(t, err)
	firstID := first.PageID()
	bpm.UnpinPage(firstID, true)

	second, err := bpm.NewPage(true, 4)
	require.NoError(t, err)
	secondID := second.PageID()
	bpm.UnpinPage(secondID, true)

	// Pool is now full (2 frames) but both are unpinned; a third NewPage
	// must evict one rather than returning ErrOutOfMemory.
	third, err := bpm.NewPage(true, 4)
	require.NoError(t, err)
	bpm.UnpinPage(third.PageID(), true)

	assert.LessOrEqual(t, len(bpm.frames), 2)
}

func TestBufferPoolOutOfMemoryWhenEveryFrameIsPinned(t *testing.T) {
	t.Parallel()

	bpm, err := NewBufferPoolManager(newTestStorage(t), 1, 8, DiscardLogger{})
	require.NoError(t, err)

	node, err := bpm.NewPage(true, 4)
	require.NoError(t, err)
	defer bpm.UnpinPage(node.PageID(), true)

	_, err = bpm.NewPage(true, 4)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestBufferPoolHeaderPageFetchUnpin(t *testing.T) {
	t.Parallel()

	bpm, err := NewBufferPoolManager(newTestStorage(t), 16, 8, DiscardLogger{})
	require.NoError(t, err)

	page, err := bpm.FetchHeaderPage()
	require.NoError(t, err)
	assert.Equal(t, 1, bpm.headerPinned)

	require.NoError(t, bpm.UnpinHeaderPage(true))
	assert.Equal(t, 0, bpm.headerPinned)
	_ = page
}
