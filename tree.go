package bptree

import "sync"

// Tree is a disk-resident B+ tree index over fixed-width keys, mapping
// each key to a single RID. One mutex serializes every public operation
// (§5); there is no latch-crabbing. The algorithms below follow the
// BusTub reference (_examples/original_source/.../b_plus_tree.cpp)
// almost one-for-one, expressed in the teacher's Go idiom — explicit
// error returns and pointer receivers instead of the reference's
// exceptions and templates — rather than the teacher's own copy-on-write
// B+ tree (btree.go), because this tree mutates nodes in place under
// explicit pin/unpin rather than cloning on write.
type Tree struct {
	mu sync.Mutex

	name   string
	bpm    *BufferPoolManager
	header *headerPage
	cmp    Comparator

	keySize         int
	leafMaxSize     int
	internalMaxSize int
	leafMinSize     int
	internalMinSize int

	rootPageID PageID
	hasRecord  bool // true once InsertRecord has run for name, ever
	logger     Logger
}

// NewTree opens (or creates) the index named name against bpm, loading
// its current root id from the header-page registry if one already
// exists (§4.10, §6 "new(name, bpm, comparator, leaf_max_size,
// internal_max_size)").
func NewTree(name string, bpm *BufferPoolManager, opts ...Option) (*Tree, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.internalMaxSize%2 != 0 {
		return nil, ErrOddInternalMaxSize
	}

	header := newHeaderPage(bpm)
	rootID, found, err := header.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !found {
		rootID = InvalidPageID
	}

	return &Tree{
		name:            name,
		bpm:             bpm,
		header:          header,
		cmp:             o.comparator,
		keySize:         o.keySize,
		leafMaxSize:     o.leafMaxSize,
		internalMaxSize: o.internalMaxSize,
		leafMinSize:     o.leafMinSize(),
		internalMinSize: o.internalMinSize(),
		rootPageID:      rootID,
		hasRecord:       found,
		logger:          o.logger,
	}, nil
}

// IsEmpty reports whether the tree currently has no entries.
func (t *Tree) IsEmpty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootPageID == InvalidPageID
}

func (t *Tree) checkKeySize(key []byte) error {
	if len(key) != t.keySize {
		return ErrKeyWrongSize
	}
	return nil
}

func (t *Tree) minSizeFor(n *Node) int {
	if n.IsLeaf() {
		return t.leafMinSize
	}
	return t.internalMinSize
}

// FindLeafPage locates the leaf that would contain key, per §4.1.
// Precondition: the tree is non-empty (t.rootPageID != InvalidPageID).
// Returns the leaf pinned exactly once; the caller must unpin it.
func (t *Tree) FindLeafPage(key []byte, leftmost bool) (*Node, error) {
	node, err := t.bpm.FetchPage(t.rootPageID)
	if err != nil {
		return nil, err
	}
	for !node.IsLeaf() {
		b := node.AsInternal()
		idx := 0
		if !leftmost {
			idx = b.lookup(t.cmp, key)
		}
		childID := b.children[idx]
		t.bpm.UnpinPage(node.PageID(), false)
		node, err = t.bpm.FetchPage(childID)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// GetValue performs a point lookup (§4.2).
func (t *Tree) GetValue(key []byte) (RID, bool, error) {
	if err := t.checkKeySize(key); err != nil {
		return RID{}, false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rootPageID == InvalidPageID {
		return RID{}, false, nil
	}

	leaf, err := t.FindLeafPage(key, false)
	if err != nil {
		return RID{}, false, err
	}
	l := leaf.AsLeaf()
	idx := l.find(t.cmp, key)
	if idx < 0 {
		t.bpm.UnpinPage(leaf.PageID(), false)
		return RID{}, false, nil
	}
	rid := l.values[idx]
	t.bpm.UnpinPage(leaf.PageID(), false)
	return rid, true, nil
}

// Insert adds (key, value) under a uniqueness constraint; returns false
// on a duplicate key (§4.3). txn is accepted but ignored (txn.go).
func (t *Tree) Insert(key []byte, value RID, txn *Txn) (bool, error) {
	if err := t.checkKeySize(key); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rootPageID == InvalidPageID {
		return t.startNewTree(key, value)
	}

	leaf, err := t.FindLeafPage(key, false)
	if err != nil {
		return false, err
	}
	l := leaf.AsLeaf()
	if l.find(t.cmp, key) >= 0 {
		t.bpm.UnpinPage(leaf.PageID(), false)
		t.logger.Warn("duplicate key insert", "index", t.name)
		return false, nil
	}

	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	idx := l.insertSlot(t.cmp, key)
	l.insertAt(idx, keyCopy, value)

	if leaf.IsFull() {
		if err := t.split(leaf); err != nil {
			t.bpm.UnpinPage(leaf.PageID(), true)
			return false, err
		}
	}
	t.bpm.UnpinPage(leaf.PageID(), true)
	return true, nil
}

func (t *Tree) startNewTree(key []byte, value RID) (bool, error) {
	node, err := t.bpm.NewPage(true, t.leafMaxSize)
	if err != nil {
		t.logger.Error("failed to allocate root leaf", "index", t.name, "err", err)
		return false, err
	}
	l := node.AsLeaf()
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	l.insertAt(0, keyCopy, value)

	t.rootPageID = node.PageID()
	if err := t.updateRootPageID(); err != nil {
		t.bpm.UnpinPage(node.PageID(), true)
		return false, err
	}
	t.bpm.UnpinPage(node.PageID(), true)
	return true, nil
}

// updateRootPageID persists t.rootPageID to the header-page registry,
// inserting a fresh record the first time and updating it on every
// subsequent root-id change (§4.10).
func (t *Tree) updateRootPageID() error {
	if !t.hasRecord {
		if err := t.header.InsertRecord(t.name, t.rootPageID); err != nil {
			return err
		}
		t.hasRecord = true
		return nil
	}
	return t.header.UpdateRecord(t.name, t.rootPageID)
}

// split splits an overflowed node and links the new sibling into the
// parent (§4.4). Precondition: node.Size() == node.MaxSize(). node
// remains pinned on return; the caller owns and releases that pin.
func (t *Tree) split(node *Node) error {
	sibling, err := t.bpm.NewPage(node.IsLeaf(), node.MaxSize())
	if err != nil {
		return err
	}
	sibling.SetParentPageID(node.ParentPageID())

	var pushKey []byte
	if node.IsLeaf() {
		l := node.AsLeaf()
		sl := sibling.AsLeaf()
		mid := len(l.keys) / 2

		sl.keys = append(sl.keys, l.keys[mid:]...)
		sl.values = append(sl.values, l.values[mid:]...)
		l.keys = l.keys[:mid]
		l.values = l.values[:mid]

		sl.nextLeafPageID = l.nextLeafPageID
		l.nextLeafPageID = sl.pageID

		pushKey = sl.keys[0]
	} else {
		b := node.AsInternal()
		sb := sibling.AsInternal()
		mid := len(b.children) / 2 // exact half; NewTree requires an even internal_max_size

		pushKey = b.keys[mid-1]
		sb.children = append(sb.children, b.children[mid:]...)
		sb.keys = append(sb.keys, b.keys[mid:]...)
		b.children = b.children[:mid]
		b.keys = b.keys[:mid-1]

		for _, cid := range sb.children {
			child, err := t.bpm.FetchPage(cid)
			if err != nil {
				t.bpm.UnpinPage(sibling.PageID(), true)
				return err
			}
			child.SetParentPageID(sibling.PageID())
			t.bpm.UnpinPage(cid, true)
		}
	}

	err = t.insertIntoParent(node, pushKey, sibling)
	t.bpm.UnpinPage(sibling.PageID(), true)
	return err
}

// insertIntoParent links left/right into their parent after a split,
// creating a new root if left was the root (§4.5).
func (t *Tree) insertIntoParent(left *Node, key []byte, right *Node) error {
	if left.IsRoot() {
		newRoot, err := t.bpm.NewPage(false, t.internalMaxSize)
		if err != nil {
			t.logger.Error("failed to allocate new root", "index", t.name, "err", err)
			return err
		}
		rb := newRoot.AsInternal()
		rb.children = []PageID{left.PageID(), right.PageID()}
		rb.keys = [][]byte{key}

		left.SetParentPageID(newRoot.PageID())
		right.SetParentPageID(newRoot.PageID())

		t.rootPageID = newRoot.PageID()
		if err := t.updateRootPageID(); err != nil {
			t.bpm.UnpinPage(newRoot.PageID(), true)
			return err
		}
		t.bpm.UnpinPage(newRoot.PageID(), true)
		return nil
	}

	parent, err := t.bpm.FetchPage(left.ParentPageID())
	if err != nil {
		return err
	}
	pb := parent.AsInternal()
	pb.insertAfter(left.PageID(), key, right.PageID())

	if parent.IsFull() {
		if err := t.split(parent); err != nil {
			t.bpm.UnpinPage(parent.PageID(), true)
			return err
		}
	}
	t.bpm.UnpinPage(parent.PageID(), true)
	return nil
}

// Remove deletes key, silently doing nothing if it is absent (§4.6, §7.3).
// txn is accepted but ignored (txn.go).
func (t *Tree) Remove(key []byte, txn *Txn) error {
	if err := t.checkKeySize(key); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rootPageID == InvalidPageID {
		return nil
	}

	leaf, err := t.FindLeafPage(key, false)
	if err != nil {
		return err
	}
	return t.deleteEntry(leaf, key)
}

// deleteEntry removes key's entry from node and rebalances as needed
// (§4.7). node arrives pinned; deleteEntry always resolves that pin
// before returning (directly, or by transferring ownership to a
// recursive call).
func (t *Tree) deleteEntry(node *Node, key []byte) error {
	if node.IsLeaf() {
		l := node.AsLeaf()
		idx := l.find(t.cmp, key)
		if idx < 0 {
			t.bpm.UnpinPage(node.PageID(), false)
			return nil
		}
		l.removeAt(idx)
	} else {
		b := node.AsInternal()
		childIdx := b.lookup(t.cmp, key)
		b.removeChildAt(childIdx)
	}

	if node.IsRoot() {
		collapsed, err := t.adjustRoot(node)
		if err != nil {
			t.bpm.UnpinPage(node.PageID(), true)
			return err
		}
		t.bpm.UnpinPage(node.PageID(), true)
		if collapsed {
			return t.bpm.DeletePage(node.PageID())
		}
		return nil
	}

	if node.IsUnderflow(t.minSizeFor(node)) {
		return t.rebalance(node)
	}

	t.bpm.UnpinPage(node.PageID(), true)
	return nil
}

// rebalance restores node's minimum occupancy by coalescing with or
// borrowing from a sibling (§4.7.3). node and the fetched parent/sibling
// arrive owned by this call; every pin taken here is resolved before
// returning, except the parent pin transferred to the coalesce path's
// recursive deleteEntry call.
func (t *Tree) rebalance(node *Node) error {
	parent, err := t.bpm.FetchPage(node.ParentPageID())
	if err != nil {
		t.bpm.UnpinPage(node.PageID(), true)
		return err
	}
	pb := parent.AsInternal()

	idx := pb.childIndex(node.PageID())
	siblingIdx := idx - 1
	if idx == 0 {
		siblingIdx = idx + 1
	}
	middleIdx := idx
	if siblingIdx > middleIdx {
		middleIdx = siblingIdx
	}
	middleKey := pb.keys[middleIdx-1]

	siblingID := pb.children[siblingIdx]
	sibling, err := t.bpm.FetchPage(siblingID)
	if err != nil {
		t.bpm.UnpinPage(node.PageID(), true)
		t.bpm.UnpinPage(parent.PageID(), true)
		return err
	}

	if node.Size()+sibling.Size() <= node.MaxSize() {
		return t.coalesce(parent, node, sibling, idx, siblingIdx, middleKey)
	}
	return t.redistribute(parent, node, sibling, idx, siblingIdx, middleIdx, middleKey)
}

// coalesce merges node and sibling into the left of the pair, deletes the
// emptied right page, and recurses into the parent to drop the now-dead
// child pointer (§4.7.3c).
func (t *Tree) coalesce(parent, node, sibling *Node, idx, siblingIdx int, middleKey []byte) error {
	left, right := node, sibling
	if idx > siblingIdx {
		left, right = sibling, node
	}

	if left.IsLeaf() {
		ll, rl := left.AsLeaf(), right.AsLeaf()
		ll.keys = append(ll.keys, rl.keys...)
		ll.values = append(ll.values, rl.values...)
		ll.nextLeafPageID = rl.nextLeafPageID
	} else {
		lb, rb := left.AsInternal(), right.AsInternal()
		for _, cid := range rb.children {
			child, err := t.bpm.FetchPage(cid)
			if err != nil {
				t.bpm.UnpinPage(left.PageID(), true)
				t.bpm.UnpinPage(right.PageID(), true)
				t.bpm.UnpinPage(parent.PageID(), true)
				return err
			}
			child.SetParentPageID(left.PageID())
			t.bpm.UnpinPage(cid, true)
		}
		// middle_key becomes the separator at the junction; the moved
		// block's own slot-0 key is a don't-care we never stored (§9
		// "coalesce must inject middle_key into the slot-0 key of the
		// moved block").
		lb.keys = append(lb.keys, middleKey)
		lb.keys = append(lb.keys, rb.keys...)
		lb.children = append(lb.children, rb.children...)
	}

	t.bpm.UnpinPage(left.PageID(), true)
	t.bpm.UnpinPage(right.PageID(), true)
	if err := t.bpm.DeletePage(right.PageID()); err != nil {
		t.bpm.UnpinPage(parent.PageID(), true)
		return err
	}

	return t.deleteEntry(parent, middleKey)
}

// redistribute borrows one entry from sibling to restore node's minimum
// occupancy, rotating the separator through middleKey (§4.7.3d).
func (t *Tree) redistribute(parent, node, sibling *Node, idx, siblingIdx, middleIdx int, middleKey []byte) error {
	pb := parent.AsInternal()
	var newSeparator []byte

	if siblingIdx < idx {
		// Sibling is on the left: move its last entry to the front of node.
		if node.IsLeaf() {
			nl, sl := node.AsLeaf(), sibling.AsLeaf()
			last := len(sl.keys) - 1
			borrowedKey, borrowedVal := sl.keys[last], sl.values[last]
			sl.removeAt(last)
			nl.insertAt(0, borrowedKey, borrowedVal)
			newSeparator = nl.keys[0]
		} else {
			nb, sb := node.AsInternal(), sibling.AsInternal()
			last := len(sb.children) - 1
			borrowedChild := sb.children[last]
			borrowedKey := sb.keys[len(sb.keys)-1]
			sb.children = sb.children[:last]
			sb.keys = sb.keys[:len(sb.keys)-1]

			child, err := t.bpm.FetchPage(borrowedChild)
			if err != nil {
				t.bpm.UnpinPage(node.PageID(), true)
				t.bpm.UnpinPage(sibling.PageID(), true)
				t.bpm.UnpinPage(parent.PageID(), true)
				return err
			}
			child.SetParentPageID(node.PageID())
			t.bpm.UnpinPage(borrowedChild, true)

			nb.children = append([]PageID{borrowedChild}, nb.children...)
			nb.keys = append([][]byte{middleKey}, nb.keys...)
			newSeparator = borrowedKey
		}
	} else {
		// Sibling is on the right: move its first entry to the end of node.
		if node.IsLeaf() {
			nl, sl := node.AsLeaf(), sibling.AsLeaf()
			borrowedKey, borrowedVal := sl.keys[0], sl.values[0]
			sl.removeAt(0)
			nl.keys = append(nl.keys, borrowedKey)
			nl.values = append(nl.values, borrowedVal)
			newSeparator = sl.keys[0]
		} else {
			nb, sb := node.AsInternal(), sibling.AsInternal()
			borrowedChild := sb.children[0]
			newMiddleKey := sb.keys[0]
			sb.children = sb.children[1:]
			sb.keys = sb.keys[1:]

			child, err := t.bpm.FetchPage(borrowedChild)
			if err != nil {
				t.bpm.UnpinPage(node.PageID(), true)
				t.bpm.UnpinPage(sibling.PageID(), true)
				t.bpm.UnpinPage(parent.PageID(), true)
				return err
			}
			child.SetParentPageID(node.PageID())
			t.bpm.UnpinPage(borrowedChild, true)

			nb.children = append(nb.children, borrowedChild)
			nb.keys = append(nb.keys, middleKey)
			newSeparator = newMiddleKey
		}
	}

	pb.keys[middleIdx-1] = newSeparator

	t.bpm.UnpinPage(node.PageID(), true)
	t.bpm.UnpinPage(sibling.PageID(), true)
	t.bpm.UnpinPage(parent.PageID(), true)
	return nil
}

// adjustRoot handles the two root-collapse edge cases (§4.8). Returns
// true iff the caller must delete root's now-obsolete page.
func (t *Tree) adjustRoot(root *Node) (bool, error) {
	if !root.IsLeaf() && root.Size() == 1 {
		childID := root.AsInternal().children[0]
		child, err := t.bpm.FetchPage(childID)
		if err != nil {
			return false, err
		}
		child.SetParentPageID(InvalidPageID)
		t.bpm.UnpinPage(childID, true)

		t.rootPageID = childID
		if err := t.updateRootPageID(); err != nil {
			return false, err
		}
		return true, nil
	}

	if root.IsLeaf() && root.Size() == 0 {
		t.rootPageID = InvalidPageID
		if err := t.updateRootPageID(); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// Close flushes every dirty buffer-pool frame and closes the underlying
// storage.
func (t *Tree) Close() error {
	return t.bpm.Close()
}
