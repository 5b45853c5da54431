package bptree

// Node is a tagged variant over the two logical node kinds the tree
// manipulates, replacing the teacher's flag-checked raw-page-cast
// polymorphism (node.go's single node struct with an isLeaf bool) with an
// explicit discriminated union and AsLeaf/AsInternal accessors, per the
// design note on rearchitecting leaf/internal polymorphism.
type Node struct {
	leaf     *LeafNode
	internal *InternalNode
}

func leafVariant(n *LeafNode) *Node     { return &Node{leaf: n} }
func internalVariant(n *InternalNode) *Node { return &Node{internal: n} }

// IsLeaf reports whether this node is a leaf.
func (n *Node) IsLeaf() bool { return n.leaf != nil }

// AsLeaf returns the leaf view, or nil if this node is internal.
func (n *Node) AsLeaf() *LeafNode { return n.leaf }

// AsInternal returns the internal view, or nil if this node is a leaf.
func (n *Node) AsInternal() *InternalNode { return n.internal }

// PageID returns the node's own page id, regardless of kind.
func (n *Node) PageID() PageID {
	if n.leaf != nil {
		return n.leaf.pageID
	}
	return n.internal.pageID
}

// ParentPageID returns InvalidPageID iff this node is the root.
func (n *Node) ParentPageID() PageID {
	if n.leaf != nil {
		return n.leaf.parentPageID
	}
	return n.internal.parentPageID
}

func (n *Node) SetParentPageID(id PageID) {
	if n.leaf != nil {
		n.leaf.parentPageID = id
	} else {
		n.internal.parentPageID = id
	}
}

func (n *Node) IsRoot() bool { return n.ParentPageID() == InvalidPageID }

// Size returns the node's occupancy: entry count for a leaf, child count
// for an internal node (§3.1).
func (n *Node) Size() int {
	if n.leaf != nil {
		return len(n.leaf.keys)
	}
	return len(n.internal.children)
}

// IsFull reports whether the node has reached its split threshold
// (size >= max_size, §4.3/§4.4).
func (n *Node) IsFull() bool {
	if n.leaf != nil {
		return len(n.leaf.keys) >= n.leaf.maxSize
	}
	return len(n.internal.children) >= n.internal.maxSize
}

// MaxSize returns the node's configured split threshold.
func (n *Node) MaxSize() int {
	if n.leaf != nil {
		return n.leaf.maxSize
	}
	return n.internal.maxSize
}

// IsUnderflow reports whether a non-root node has fewer than its minimum
// occupancy (§3.1 invariant 3; root is exempt, checked by the caller).
func (n *Node) IsUnderflow(minSize int) bool {
	return n.Size() < minSize
}

// LeafNode holds sorted (key, value) entries and a forward pointer to the
// next leaf, per §3.1.
type LeafNode struct {
	pageID         PageID
	parentPageID   PageID
	nextLeafPageID PageID
	maxSize        int
	keys           [][]byte
	values         []RID
}

func newLeafNode(id PageID, maxSize int) *LeafNode {
	return &LeafNode{
		pageID:         id,
		parentPageID:   InvalidPageID,
		nextLeafPageID: InvalidPageID,
		maxSize:        maxSize,
	}
}

// find returns the index of key within the leaf, or -1 if absent.
func (l *LeafNode) find(cmp Comparator, key []byte) int {
	lo, hi := 0, len(l.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		c := cmp.Compare(key, l.keys[mid])
		switch {
		case c == 0:
			return mid
		case c < 0:
			hi = mid
		default:
			lo = mid + 1
		}
	}
	return -1
}

// insertSlot returns the index at which key should be inserted to keep
// l.keys sorted, assuming key is not already present.
func (l *LeafNode) insertSlot(cmp Comparator, key []byte) int {
	lo, hi := 0, len(l.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp.Compare(key, l.keys[mid]) < 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func (l *LeafNode) insertAt(idx int, key []byte, rid RID) {
	l.keys = append(l.keys, nil)
	l.values = append(l.values, RID{})
	copy(l.keys[idx+1:], l.keys[idx:])
	copy(l.values[idx+1:], l.values[idx:])
	l.keys[idx] = key
	l.values[idx] = rid
}

func (l *LeafNode) removeAt(idx int) {
	copy(l.keys[idx:], l.keys[idx+1:])
	copy(l.values[idx:], l.values[idx+1:])
	l.keys = l.keys[:len(l.keys)-1]
	l.values = l.values[:len(l.values)-1]
}

// InternalNode holds sorted (separator_key, child_page_id) entries. Slot 0
// has no separator key: children has one more element than keys (§3.1).
type InternalNode struct {
	pageID       PageID
	parentPageID PageID
	maxSize      int
	keys         [][]byte // keys[i] separates children[i] and children[i+1]
	children     []PageID
}

func newInternalNode(id PageID, maxSize int) *InternalNode {
	return &InternalNode{
		pageID:       id,
		parentPageID: InvalidPageID,
		maxSize:      maxSize,
	}
}

// lookup returns the index of the child whose subtree key belongs in.
// keys[i] separates children[i] and children[i+1]; per invariant 5, a key
// equal to a separator belongs to the right subtree, so this is a count
// of separators not exceeding key.
func (b *InternalNode) lookup(cmp Comparator, key []byte) int {
	lo, hi := 0, len(b.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp.Compare(b.keys[mid], key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// childIndex returns the slot holding childID, or -1 if not present.
func (b *InternalNode) childIndex(childID PageID) int {
	for i, c := range b.children {
		if c == childID {
			return i
		}
	}
	return -1
}

// insertAfter inserts (key, childID) immediately after the slot currently
// holding leftChildID, shifting subsequent entries right (§4.5).
func (b *InternalNode) insertAfter(leftChildID PageID, key []byte, childID PageID) {
	idx := b.childIndex(leftChildID)
	b.keys = append(b.keys, nil)
	copy(b.keys[idx+1:], b.keys[idx:])
	b.keys[idx] = key

	b.children = append(b.children, InvalidPageID)
	copy(b.children[idx+2:], b.children[idx+1:])
	b.children[idx+1] = childID
}

// removeChildAt removes children[idx] and the separator key that precedes
// it (or, for idx == 0, the separator that used to follow it).
func (b *InternalNode) removeChildAt(idx int) {
	keyIdx := idx - 1
	if keyIdx < 0 {
		keyIdx = 0
	}
	if len(b.keys) > 0 {
		copy(b.keys[keyIdx:], b.keys[keyIdx+1:])
		b.keys = b.keys[:len(b.keys)-1]
	}
	copy(b.children[idx:], b.children[idx+1:])
	b.children = b.children[:len(b.children)-1]
}

// serializeNode encodes a Node's decoded fields into a fresh Page,
// matching the teacher's node.serialize, generalized from a variable-length
// offset-table layout to fixed-width packed entries (page.go).
func serializeNode(n *Node, page *Page, keySize int) error {
	h := &pageHeader{
		PageID:       n.PageID(),
		ParentPageID: n.ParentPageID(),
		KeySize:      uint16(keySize),
	}

	if n.leaf != nil {
		l := n.leaf
		h.Flags = LeafPageFlag
		h.NumKeys = uint16(len(l.keys))
		h.MaxSize = uint16(l.maxSize)
		h.NextLeafPageID = l.nextLeafPageID
		if len(l.keys) > leafCapacity(keySize) {
			return ErrPageOverflow
		}
		page.writeHeader(h)
		for i := range l.keys {
			page.writeLeafEntry(i, keySize, l.keys[i], l.values[i])
		}
		return nil
	}

	b := n.internal
	h.Flags = InternalPageFlag
	h.NumKeys = uint16(len(b.children))
	h.MaxSize = uint16(b.maxSize)
	h.NextLeafPageID = InvalidPageID
	if len(b.children) > internalCapacity(keySize) {
		return ErrPageOverflow
	}
	page.writeHeader(h)
	for i, c := range b.children {
		page.writeInternalChild(i, c)
	}
	for i, k := range b.keys {
		// b.keys[i] separates children[i] and children[i+1]; stored at
		// internal slot i+1 per page.go's internalKey convention.
		page.writeInternalKey(i+1, len(b.children), keySize, k)
	}
	return nil
}

// deserializeNode decodes a Page into a Node, dispatching on the header's
// leaf flag (§9 "Polymorphism over leaf/internal").
func deserializeNode(page *Page) *Node {
	h := page.header()
	keySize := int(h.KeySize)

	if h.Flags&LeafPageFlag != 0 {
		l := &LeafNode{
			pageID:         h.PageID,
			parentPageID:   h.ParentPageID,
			nextLeafPageID: h.NextLeafPageID,
			maxSize:        int(h.MaxSize),
		}
		n := int(h.NumKeys)
		l.keys = make([][]byte, n)
		l.values = make([]RID, n)
		for i := 0; i < n; i++ {
			key := make([]byte, keySize)
			copy(key, page.leafKey(i, keySize))
			l.keys[i] = key
			l.values[i] = page.leafRID(i, keySize)
		}
		return leafVariant(l)
	}

	b := &InternalNode{
		pageID:       h.PageID,
		parentPageID: h.ParentPageID,
		maxSize:      int(h.MaxSize),
	}
	n := int(h.NumKeys)
	b.children = make([]PageID, n)
	for i := 0; i < n; i++ {
		b.children[i] = page.internalChild(i)
	}
	if n > 0 {
		b.keys = make([][]byte, n-1)
	}
	for i := 1; i < n; i++ {
		key := make([]byte, keySize)
		copy(key, page.internalKey(i, n, keySize))
		b.keys[i-1] = key
	}
	return internalVariant(b)
}
