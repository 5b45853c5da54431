package bptree

// Open opens (or creates) a single-index B+ tree store at path, building
// the file-backed Storage and BufferPoolManager from opts and wiring them
// into a Tree named name, grounded on the teacher's db.go Open(path,
// options...) entrypoint — the Tree/BufferPoolManager split itself follows
// §1/§6, which name the buffer pool as an external collaborator a caller
// constructs and passes in, so Open exists purely as the common-case
// convenience of doing that wiring in one call.
func Open(path string, name string, opts ...Option) (*Tree, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	storage, err := OpenFileStorage(path)
	if err != nil {
		return nil, err
	}

	bpm, err := NewBufferPoolManager(storage, o.poolSize, o.keySize, o.logger)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	tree, err := NewTree(name, bpm, opts...)
	if err != nil {
		_ = bpm.Close()
		return nil, err
	}
	return tree, nil
}
