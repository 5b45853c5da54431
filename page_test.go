package bptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageLeafEntryRoundTrip(t *testing.T) {
	t.Parallel()

	page := &Page{}
	keySize := 8
	key := intKey(42)
	rid := RID{PageID: 7, SlotNum: 3}

	page.writeLeafEntry(0, keySize, key, rid)

	assert.Equal(t, key, page.leafKey(0, keySize))
	assert.Equal(t, rid, page.leafRID(0, keySize))
}

func TestPageInternalChildAndKeyRoundTrip(t *testing.T) {
	t.Parallel()

	page := &Page{}
	keySize := 8
	numKeys := 3 // 3 children, 2 separator keys

	page.writeInternalChild(0, PageID(10))
	page.writeInternalChild(1, PageID(11))
	page.writeInternalChild(2, PageID(12))
	page.writeInternalKey(1, numKeys, keySize, intKey(5))
	page.writeInternalKey(2, numKeys, keySize, intKey(9))

	assert.Equal(t, PageID(10), page.internalChild(0))
	assert.Equal(t, PageID(11), page.internalChild(1))
	assert.Equal(t, PageID(12), page.internalChild(2))
	assert.Equal(t, intKey(5), page.internalKey(1, numKeys, keySize))
	assert.Equal(t, intKey(9), page.internalKey(2, numKeys, keySize))
}

func TestPageChecksumDetectsCorruption(t *testing.T) {
	t.Parallel()

	page := &Page{}
	page.header().Flags = LeafPageFlag
	page.writeLeafEntry(0, 8, intKey(1), RID{PageID: 1})
	page.sealChecksum()

	require.True(t, page.verifyChecksum())

	page.data[pageHeaderSize] ^= 0xFF
	assert.False(t, page.verifyChecksum())
}

func TestLeafAndInternalCapacity(t *testing.T) {
	t.Parallel()

	cap8 := leafCapacity(8)
	assert.Greater(t, cap8, 0)
	assert.LessOrEqual(t, pageHeaderSize+cap8*leafEntrySize(8), PageSize)

	icap8 := internalCapacity(8)
	assert.Greater(t, icap8, 0)
	assert.LessOrEqual(t, pageHeaderSize+icap8*4+(icap8-1)*8, PageSize)
}
