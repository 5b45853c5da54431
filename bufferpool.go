package bptree

import (
	"sync"

	"github.com/elastic/go-freelru"
)

// frame is one cached, pin-counted slot in the buffer pool, grounded on
// the teacher's pagecache.go versionEntry (pageID, node, pinCount) with
// the MVCC version list dropped — this tree has no snapshot isolation, so
// a page id maps to exactly one live node, not a version chain.
type frame struct {
	node     *Node
	pinCount int
	dirty    bool
}

// BufferPoolManager is the external collaborator named in §1/§6: page
// allocation, fetch, pin/unpin, delete, persistence. It caches decoded
// Nodes rather than raw Pages — decoding happens only on a FetchPage
// cache miss and encoding only on flush/evict — which mirrors the teacher's
// pagecache.go storing decoded *node values, not raw *Page.
//
// Unpinned frames are tracked in LRU order by go-freelru, replacing the
// teacher's hand-rolled container/list LRU (pagecache.go); the dependency
// is declared in the teacher's go.mod but never imported by teacher code,
// so this is its first real consumer.
type BufferPoolManager struct {
	mu        sync.Mutex
	storage   Storage
	keySize   int
	poolSize  int
	logger    Logger
	frames    map[PageID]*frame
	evictable *freelru.LRU[PageID, struct{}]

	// headerFrame caches the reserved header page (HeaderPageID) outside
	// the node-decoding frames map: the header page's layout is a
	// name->root_page_id registry (headerpage.go), not a leaf/internal
	// node, so it is never passed through deserializeNode. It is pinned
	// so rarely (once per mutating operation) that it is exempt from
	// eviction rather than plumbed through the generic LRU.
	headerFrame  *Page
	headerPinned int
	headerDirty  bool
}

func hashPageID(id PageID) uint32 { return uint32(id) }

// NewBufferPoolManager creates a pool of poolSize frames backed by storage.
func NewBufferPoolManager(storage Storage, poolSize int, keySize int, logger Logger) (*BufferPoolManager, error) {
	evictable, err := freelru.New[PageID, struct{}](uint32(poolSize), hashPageID)
	if err != nil {
		return nil, err
	}
	return &BufferPoolManager{
		storage:   storage,
		keySize:   keySize,
		poolSize:  poolSize,
		logger:    logger,
		frames:    make(map[PageID]*frame),
		evictable: evictable,
	}, nil
}

// NewPage allocates a fresh page, decodes it as a leaf or internal node
// per isLeaf, and returns it pinned once (§6 "new_page ... Returned page
// arrives pinned").
func (bp *BufferPoolManager) NewPage(isLeaf bool, maxSize int) (*Node, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if err := bp.ensureRoom(); err != nil {
		return nil, err
	}

	id, err := bp.storage.AllocatePage()
	if err != nil {
		return nil, err
	}

	var node *Node
	if isLeaf {
		node = leafVariant(newLeafNode(id, maxSize))
	} else {
		node = internalVariant(newInternalNode(id, maxSize))
	}

	bp.frames[id] = &frame{node: node, pinCount: 1, dirty: true}
	return node, nil
}

// FetchPage returns the node for id, pinned, loading it from storage on a
// cache miss (§6 "fetch_page ... Returned pinned").
func (bp *BufferPoolManager) FetchPage(id PageID) (*Node, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if fr, ok := bp.frames[id]; ok {
		if fr.pinCount == 0 {
			bp.evictable.Remove(id)
		}
		fr.pinCount++
		return fr.node, nil
	}

	if err := bp.ensureRoom(); err != nil {
		return nil, err
	}

	page, err := bp.storage.ReadPage(id)
	if err != nil {
		return nil, err
	}
	node := deserializeNode(page)
	bp.frames[id] = &frame{node: node, pinCount: 1}
	return node, nil
}

// UnpinPage releases one pin on id. Must be called exactly once per pin
// (§3.2 invariant 8, §6). dirty is OR'd into the frame's dirty flag so a
// page written dirty by one caller and read-only by another still
// flushes.
func (bp *BufferPoolManager) UnpinPage(id PageID, dirty bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	fr, ok := bp.frames[id]
	if !ok {
		bp.logger.Error("unpin of untracked page", "page_id", id)
		return
	}
	if dirty {
		fr.dirty = true
	}
	fr.pinCount--
	if fr.pinCount < 0 {
		bp.logger.Error("pin count went negative", "page_id", id)
		fr.pinCount = 0
	}
	if fr.pinCount == 0 {
		bp.evictable.Add(id, struct{}{})
	}
}

// DeletePage removes id from the pool and frees its storage slot. Must be
// preceded by unpin and by removal from all live parent pointers (§6).
func (bp *BufferPoolManager) DeletePage(id PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	fr, ok := bp.frames[id]
	if ok {
		if fr.pinCount > 0 {
			bp.logger.Error("delete of pinned page", "page_id", id)
		}
		delete(bp.frames, id)
		bp.evictable.Remove(id)
	}
	return bp.storage.FreePage(id)
}

// ensureRoom evicts one unpinned frame if the pool is at capacity, flushing
// it first if dirty. Returns ErrOutOfMemory if every frame is pinned.
func (bp *BufferPoolManager) ensureRoom() error {
	if len(bp.frames) < bp.poolSize {
		return nil
	}
	id, _, ok := bp.evictable.RemoveOldest()
	if !ok {
		bp.logger.Error("buffer pool exhausted", "pool_size", bp.poolSize)
		return ErrOutOfMemory
	}
	fr := bp.frames[id]
	if fr.dirty {
		if err := bp.flush(id, fr); err != nil {
			return err
		}
	}
	delete(bp.frames, id)
	return nil
}

func (bp *BufferPoolManager) flush(id PageID, fr *frame) error {
	page := &Page{}
	if err := serializeNode(fr.node, page, bp.keySize); err != nil {
		return err
	}
	return bp.storage.WritePage(id, page)
}

// FetchHeaderPage returns the reserved header page, pinned, loading it
// from storage on first use.
func (bp *BufferPoolManager) FetchHeaderPage() (*Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.headerFrame == nil {
		page, err := bp.storage.ReadPage(HeaderPageID)
		if err != nil {
			return nil, err
		}
		bp.headerFrame = page
	}
	bp.headerPinned++
	return bp.headerFrame, nil
}

// UnpinHeaderPage releases one pin on the header page, flushing it
// immediately if dirty (the header page is mutated too rarely to bother
// batching its write-back with the rest of the pool).
func (bp *BufferPoolManager) UnpinHeaderPage(dirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if dirty {
		bp.headerDirty = true
	}
	bp.headerPinned--
	if bp.headerPinned < 0 {
		bp.logger.Error("header page pin count went negative")
		bp.headerPinned = 0
	}
	if bp.headerPinned == 0 && bp.headerDirty {
		if err := bp.storage.WritePage(HeaderPageID, bp.headerFrame); err != nil {
			return err
		}
		bp.headerDirty = false
	}
	return nil
}

// FlushAll writes every dirty frame back to storage, without evicting.
func (bp *BufferPoolManager) FlushAll() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for id, fr := range bp.frames {
		if fr.dirty {
			if err := bp.flush(id, fr); err != nil {
				return err
			}
			fr.dirty = false
		}
	}
	return bp.storage.Sync()
}

// Close flushes every dirty frame and closes the underlying storage.
func (bp *BufferPoolManager) Close() error {
	if err := bp.FlushAll(); err != nil {
		return err
	}
	return bp.storage.Close()
}
