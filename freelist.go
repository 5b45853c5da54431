package bptree

// freeList tracks page ids freed by coalesce/AdjustRoot for reuse by the
// next NewPage call, grounded on the teacher's FreeList.Allocate/Free
// shape (freelist.go), trimmed of the teacher's pending-until-txn
// bookkeeping: there is no MVCC here, so a page freed under the tree's
// single mutex is immediately reusable.
type freeList struct {
	ids []PageID
}

func newFreeList() *freeList {
	return &freeList{}
}

// allocate returns a free page id, or (InvalidPageID, false) if none is
// available.
func (f *freeList) allocate() (PageID, bool) {
	if len(f.ids) == 0 {
		return InvalidPageID, false
	}
	id := f.ids[len(f.ids)-1]
	f.ids = f.ids[:len(f.ids)-1]
	return id, true
}

// free returns a page id to the pool.
func (f *freeList) free(id PageID) {
	f.ids = append(f.ids, id)
}
