package bptree

import "fmt"

// Check walks the whole tree and verifies every structural invariant from
// §3.2: key order within each node, min/max occupancy, parent linkage,
// uniform leaf depth, and a leaf chain that agrees with in-order key
// order. It is test infrastructure, not a debug renderer (§1 puts dump
// facilities out of scope), grounded on the BusTub reference's
// recursive-descent ToGraph/ToString walk but returning a structured
// error instead of printing.
func (t *Tree) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rootPageID == InvalidPageID {
		return nil
	}

	root, err := t.bpm.FetchPage(t.rootPageID)
	if err != nil {
		return err
	}

	leafDepth := -1
	var prevLeafID PageID = InvalidPageID
	var prevLastKey []byte

	err = t.checkNode(root, InvalidPageID, 0, &leafDepth, &prevLeafID, &prevLastKey)
	t.bpm.UnpinPage(root.PageID(), false)
	return err
}

// checkNode recursively validates node and its subtree. node arrives
// pinned by the caller (the caller owns and releases node's pin);
// checkNode pins and unpins every child it visits.
func (t *Tree) checkNode(node *Node, expectedParent PageID, depth int, leafDepth *int, prevLeafID *PageID, prevLastKey *[]byte) error {
	if node.ParentPageID() != expectedParent {
		return fmt.Errorf("bptree: page %d has parent %d, want %d", node.PageID(), node.ParentPageID(), expectedParent)
	}

	if node.IsLeaf() {
		l := node.AsLeaf()
		if err := checkSorted(t.cmp, l.keys); err != nil {
			return fmt.Errorf("bptree: leaf page %d: %w", node.PageID(), err)
		}
		if !node.IsRoot() && node.Size() < t.leafMinSize {
			return fmt.Errorf("bptree: leaf page %d has size %d below min %d", node.PageID(), node.Size(), t.leafMinSize)
		}
		if node.Size() > t.leafMaxSize {
			return fmt.Errorf("bptree: leaf page %d has size %d above max %d", node.PageID(), node.Size(), t.leafMaxSize)
		}

		if *leafDepth == -1 {
			*leafDepth = depth
		} else if depth != *leafDepth {
			return fmt.Errorf("bptree: leaf page %d at depth %d, other leaves at depth %d", node.PageID(), depth, *leafDepth)
		}

		if *prevLeafID != InvalidPageID {
			prev, err := t.bpm.FetchPage(*prevLeafID)
			if err != nil {
				return err
			}
			prevNext := prev.AsLeaf().nextLeafPageID
			t.bpm.UnpinPage(*prevLeafID, false)
			if prevNext != node.PageID() {
				return fmt.Errorf("bptree: leaf page %d links to %d, want next leaf %d", *prevLeafID, prevNext, node.PageID())
			}
			if len(l.keys) > 0 && t.cmp.Compare(*prevLastKey, l.keys[0]) >= 0 {
				return fmt.Errorf("bptree: leaf chain out of order at page %d", node.PageID())
			}
		}
		*prevLeafID = node.PageID()
		if len(l.keys) > 0 {
			*prevLastKey = l.keys[len(l.keys)-1]
		}
		return nil
	}

	b := node.AsInternal()
	if err := checkSorted(t.cmp, b.keys); err != nil {
		return fmt.Errorf("bptree: internal page %d: %w", node.PageID(), err)
	}
	if len(b.children) != len(b.keys)+1 {
		return fmt.Errorf("bptree: internal page %d has %d children, %d keys", node.PageID(), len(b.children), len(b.keys))
	}
	if !node.IsRoot() && node.Size() < t.internalMinSize {
		return fmt.Errorf("bptree: internal page %d has size %d below min %d", node.PageID(), node.Size(), t.internalMinSize)
	}
	if node.Size() > t.internalMaxSize {
		return fmt.Errorf("bptree: internal page %d has size %d above max %d", node.PageID(), node.Size(), t.internalMaxSize)
	}
	if node.IsRoot() && node.Size() < 2 && len(b.children) != 0 {
		return fmt.Errorf("bptree: internal root page %d has only %d child, should have been collapsed", node.PageID(), node.Size())
	}

	for _, childID := range b.children {
		child, err := t.bpm.FetchPage(childID)
		if err != nil {
			return err
		}
		err = t.checkNode(child, node.PageID(), depth+1, leafDepth, prevLeafID, prevLastKey)
		t.bpm.UnpinPage(childID, false)
		if err != nil {
			return err
		}
	}
	return nil
}

func checkSorted(cmp Comparator, keys [][]byte) error {
	for i := 1; i < len(keys); i++ {
		if cmp.Compare(keys[i-1], keys[i]) >= 0 {
			return fmt.Errorf("keys out of order at slot %d", i)
		}
	}
	return nil
}
