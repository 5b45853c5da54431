//go:build linux

package bptree

import (
	"os"

	"golang.org/x/sys/unix"
)

// fdatasync flushes a page file's data to durable storage, grounded on
// the teacher's internal/storage/mmap_unix.go use of golang.org/x/sys/unix,
// narrowed here from mmap+msync to a plain fdatasync on the backing file.
// unix.Fdatasync is only generated for linux/*bsd, so darwin falls through
// to storage_other.go's f.Sync() fallback instead of sharing this file.
func fdatasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
