// Package disk defines the external disk-manager contract the buffer pool
// core consumes. Implementations live in memdisk (tests) and filedisk
// (production, file-backed).
package disk

import "github.com/kiraodb/kiradb/core/storage/page"

// Manager is the synchronous disk collaborator the buffer pool depends on.
// It owns page allocation; the buffer pool never picks page ids itself.
type Manager interface {
	// ReadPage fills buf (len == page.Size) with the on-disk contents of id.
	ReadPage(id page.ID, buf []byte) error

	// WritePage persists buf (len == page.Size) at id's on-disk location.
	WritePage(id page.ID, buf []byte) error

	// AllocatePage returns a fresh, monotonically increasing page id.
	AllocatePage() (page.ID, error)

	// DeallocatePage is a reserved hook for free-space management. The
	// default implementations treat it as a no-op.
	DeallocatePage(id page.ID) error

	// Shutdown releases any underlying resources (file handles, etc).
	Shutdown() error
}
