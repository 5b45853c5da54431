package bptree

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

const (
	PageSize = 4096

	LeafPageFlag     uint16 = 0x01
	InternalPageFlag uint16 = 0x02

	pageHeaderSize = 32 // PageID(4) + ParentPageID(4) + Flags(2) + NumKeys(2) + MaxSize(2) + KeySize(2) + NextLeafPageID(4) + Reserved(4) + Checksum(8)
)

// PageID identifies a page on disk or in the buffer pool. It is opaque to
// callers beyond equality and the InvalidPageID sentinel.
type PageID uint32

// InvalidPageID is the sentinel meaning "no page" — an empty tree's
// root_page_id, a root's parent_page_id, or a leaf's next_leaf_page_id at
// the end of the chain.
const InvalidPageID PageID = ^PageID(0)

// HeaderPageID is the reserved page id holding the index-name → root
// registry (§4.10, §6).
const HeaderPageID PageID = 0

// Page is a raw 4096-byte disk/buffer-pool frame. Its header is fixed size
// and accessed via an unsafe.Pointer cast over the byte array, matching
// the teacher's pageHeader idiom; because keys in this tree are
// fixed-width (unlike the teacher's arbitrary []byte keys), entries are
// packed by plain index arithmetic with no variable-length offset table.
//
// LEAF PAGE LAYOUT:
//
//	[header 32B][entry0][entry1]...[entryN-1]
//	entry = key (KeySize bytes) || RID (8 bytes)
//
// INTERNAL PAGE LAYOUT:
//
//	[header 32B][child0 4B][child1 4B]...[childN-1 4B][key1][key2]...[keyN-1]
//	NumKeys counts children (slots), so there are NumKeys children and
//	NumKeys-1 separator keys; slot 0 has no separator key (§3.1).
type Page struct {
	data [PageSize]byte
}

// pageHeader mirrors the first pageHeaderSize bytes of Page.data.
type pageHeader struct {
	PageID         PageID
	ParentPageID   PageID
	Flags          uint16
	NumKeys        uint16
	MaxSize        uint16
	KeySize        uint16
	NextLeafPageID PageID
	Reserved       uint32
	Checksum       uint64
}

func (p *Page) header() *pageHeader {
	return (*pageHeader)(unsafe.Pointer(&p.data[0]))
}

func (p *Page) writeHeader(h *pageHeader) {
	*p.header() = *h
}

func (p *Page) isLeaf() bool {
	return p.header().Flags&LeafPageFlag != 0
}

// leafEntrySize returns the byte width of one leaf entry for the given key size.
func leafEntrySize(keySize int) int {
	return keySize + ridSize
}

// leafKey returns the key bytes for leaf slot i.
func (p *Page) leafKey(i int, keySize int) []byte {
	off := pageHeaderSize + i*leafEntrySize(keySize)
	return p.data[off : off+keySize]
}

// leafRID returns the RID for leaf slot i.
func (p *Page) leafRID(i int, keySize int) RID {
	off := pageHeaderSize + i*leafEntrySize(keySize) + keySize
	return decodeRID(p.data[off : off+ridSize])
}

// writeLeafEntry writes key and rid into leaf slot i.
func (p *Page) writeLeafEntry(i int, keySize int, key []byte, rid RID) {
	off := pageHeaderSize + i*leafEntrySize(keySize)
	copy(p.data[off:off+keySize], key)
	rid.encode(p.data[off+keySize : off+keySize+ridSize])
}

// internalChildrenOffset is always pageHeaderSize; children sit first.
func internalChildrenOffset() int {
	return pageHeaderSize
}

// internalKeysOffset returns the byte offset where separator keys begin,
// i.e. right after the NumKeys children pointers.
func internalKeysOffset(numKeys int) int {
	return pageHeaderSize + numKeys*4
}

// internalChild returns child pointer i (0 <= i < NumKeys).
func (p *Page) internalChild(i int) PageID {
	off := internalChildrenOffset() + i*4
	return PageID(getUint32(p.data[off : off+4]))
}

func (p *Page) writeInternalChild(i int, id PageID) {
	off := internalChildrenOffset() + i*4
	putUint32(p.data[off:off+4], uint32(id))
}

// internalKey returns separator key i, where 1 <= i <= NumKeys-1 (slot 0
// has no separator, per §3.1).
func (p *Page) internalKey(i int, numKeys int, keySize int) []byte {
	off := internalKeysOffset(numKeys) + (i-1)*keySize
	return p.data[off : off+keySize]
}

func (p *Page) writeInternalKey(i int, numKeys int, keySize int, key []byte) {
	off := internalKeysOffset(numKeys) + (i-1)*keySize
	copy(p.data[off:off+keySize], key)
}

// sealChecksum computes and stores the page checksum over every byte
// except the checksum field itself; every page kind uses this, unlike the
// teacher which only checksums MetaPage.
func (p *Page) sealChecksum() {
	h := p.header()
	h.Checksum = 0
	h.Checksum = xxhash.Sum64(p.data[:])
}

// verifyChecksum reports whether the stored checksum matches the page's
// current contents.
func (p *Page) verifyChecksum() bool {
	h := p.header()
	want := h.Checksum
	h.Checksum = 0
	got := xxhash.Sum64(p.data[:])
	h.Checksum = want
	return got == want
}

// leafCapacity returns the maximum number of entries that fit in a leaf
// page for the given key size.
func leafCapacity(keySize int) int {
	return (PageSize - pageHeaderSize) / leafEntrySize(keySize)
}

// internalCapacity returns the maximum number of children that fit in an
// internal page for the given key size.
func internalCapacity(keySize int) int {
	// NumKeys children (4 bytes each) + (NumKeys-1) keys must fit.
	// n*4 + (n-1)*keySize <= avail  =>  n <= (avail+keySize) / (4+keySize)
	avail := PageSize - pageHeaderSize
	return (avail + keySize) / (4 + keySize)
}
