package bptree

// Iterator yields (key, value) pairs from a leaf-chain scan in ascending
// key order (§3.1, §4.9). It holds exactly one pinned leaf page while
// live; dropping it via Close unpins. Grounded on the teacher's
// src/iterator.go Cursor for the general shape of a pinned-page iterator
// with Next, but walking the B+-tree leaf chain directly (BusTub's
// IndexIterator) instead of the teacher's root-to-leaf path stack — once
// positioned at a leaf, forward scan never revisits internal nodes.
type Iterator struct {
	tree *Tree
	leaf *Node
	slot int
}

// Begin returns an iterator positioned at the first entry of the
// leftmost leaf (§4.9 "begin()"). The tree mutex is held only for the
// descent, not for the iterator's lifetime (§9 open-question decision).
func (t *Tree) Begin() (*Iterator, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rootPageID == InvalidPageID {
		return &Iterator{tree: t}, nil
	}
	leaf, err := t.FindLeafPage(nil, true)
	if err != nil {
		return nil, err
	}
	it := &Iterator{tree: t, leaf: leaf, slot: 0}
	if err := it.skipEmptyLeaves(); err != nil {
		return nil, err
	}
	return it, nil
}

// BeginAt returns an iterator positioned at the slot of the first key
// greater than or equal to key (§4.9 "begin(key)").
func (t *Tree) BeginAt(key []byte) (*Iterator, error) {
	if err := t.checkKeySize(key); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rootPageID == InvalidPageID {
		return &Iterator{tree: t}, nil
	}
	leaf, err := t.FindLeafPage(key, false)
	if err != nil {
		return nil, err
	}
	l := leaf.AsLeaf()
	it := &Iterator{tree: t, leaf: leaf, slot: l.insertSlot(t.cmp, key)}
	if err := it.skipEmptyLeaves(); err != nil {
		return nil, err
	}
	return it, nil
}

// End returns the O(1) sentinel end iterator: no pinned leaf, never the
// reference's O(N) scan-to-end (§9 open-question decision).
func (t *Tree) End() *Iterator {
	return &Iterator{tree: t}
}

// IsEnd reports whether the iterator has been exhausted.
func (it *Iterator) IsEnd() bool {
	return it.leaf == nil
}

// Key returns the key at the iterator's current position. Call only when
// !IsEnd().
func (it *Iterator) Key() []byte {
	return it.leaf.AsLeaf().keys[it.slot]
}

// Value returns the RID at the iterator's current position. Call only
// when !IsEnd().
func (it *Iterator) Value() RID {
	return it.leaf.AsLeaf().values[it.slot]
}

// Next advances the iterator by one entry, crossing into the next leaf
// via next_leaf_page_id when the current leaf is exhausted (§4.9
// "Advance ++").
func (it *Iterator) Next() error {
	if it.leaf == nil {
		return nil
	}
	it.slot++
	return it.skipEmptyLeaves()
}

// skipEmptyLeaves advances past the end of the current leaf (and any
// leaves left empty by a concurrent-with-construction delete, which
// cannot happen under the tree's single mutex but is handled defensively)
// until the iterator points at a live entry or the leaf chain ends.
func (it *Iterator) skipEmptyLeaves() error {
	for it.leaf != nil && it.slot >= len(it.leaf.AsLeaf().keys) {
		nextID := it.leaf.AsLeaf().nextLeafPageID
		it.tree.bpm.UnpinPage(it.leaf.PageID(), false)
		it.leaf = nil
		if nextID == InvalidPageID {
			return nil
		}
		node, err := it.tree.bpm.FetchPage(nextID)
		if err != nil {
			return err
		}
		it.leaf = node
		it.slot = 0
	}
	return nil
}

// Close releases the iterator's pinned leaf, if any. Callers must drain
// or Close every iterator before the tree is destroyed (§5).
func (it *Iterator) Close() {
	if it.leaf != nil {
		it.tree.bpm.UnpinPage(it.leaf.PageID(), false)
		it.leaf = nil
	}
}
