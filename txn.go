package bptree

// Txn is an opaque transaction handle accepted by Insert and Remove but
// not otherwise interpreted by the core: locking beyond the single
// tree-wide mutex, logging, and crash recovery are out of scope (§1).
// A nil Txn is valid and behaves identically to any other value — the
// parameter exists so callers embedding this tree in a larger system with
// real transactions have somewhere to pass their handle through.
type Txn struct{}
