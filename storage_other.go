//go:build !linux

package bptree

import "os"

// fdatasync falls back to a full sync on platforms without a data-only
// flush syscall reachable from golang.org/x/sys/unix (darwin included,
// since unix.Fdatasync is only generated for linux/*bsd), matching the
// teacher's internal/storage/mmap_unsupported.go fallback pattern.
func fdatasync(f *os.File) error {
	return f.Sync()
}
