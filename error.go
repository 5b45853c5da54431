package bptree

import "errors"

//goland:noinspection GoUnusedGlobalVariable
var (
	// ErrOutOfMemory is returned when the buffer pool cannot fetch or
	// allocate a page (every frame is pinned and none can be evicted).
	ErrOutOfMemory = errors.New("buffer pool exhausted")

	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidChecksum    = errors.New("invalid page checksum")
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("invalid format version")
	ErrCorruption         = errors.New("data corruption detected")
	ErrPageOverflow       = errors.New("entry does not fit in page")
	ErrInvalidOffset      = errors.New("invalid page offset")

	ErrIndexNotFound = errors.New("index not found in header page")
	ErrTreeClosed    = errors.New("tree is closed")

	ErrKeyWrongSize = errors.New("key has wrong width for this tree")

	// ErrOddInternalMaxSize is returned when internal_max_size is odd.
	// Splitting an internal node divides its max_size children between
	// two nodes; an odd max_size leaves one side below min_size (§3.2
	// invariant 3), so only even values are accepted.
	ErrOddInternalMaxSize = errors.New("internal_max_size must be even")
)
