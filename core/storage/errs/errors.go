// Package errs holds the sentinel errors shared across the buffer pool core.
package errs

import "errors"

var (
	// ErrPoolExhausted means every frame is pinned and the pool cannot make
	// room for a new residency.
	ErrPoolExhausted = errors.New("buffer pool is full and no pages can be evicted")

	// ErrPageNotFound means the requested page id is not resident.
	ErrPageNotFound = errors.New("page not found in buffer pool")

	// ErrPagePinned means a delete was refused because the page is still pinned.
	ErrPagePinned = errors.New("page is pinned and cannot be deleted")

	// ErrInvalidFrameID means the replacer was asked about a frame id outside
	// [0, pool_size).
	ErrInvalidFrameID = errors.New("frame id out of range")

	// ErrInvalidPageID means a caller passed a negative page id.
	ErrInvalidPageID = errors.New("invalid page id")

	// ErrIO wraps failures from the disk manager.
	ErrIO = errors.New("i/o error")
)
