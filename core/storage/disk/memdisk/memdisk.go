// Package memdisk is an in-memory disk.Manager used by tests. It has no
// durability; it exists so the buffer
// pool's correctness properties can be exercised without touching a
// filesystem.
package memdisk

import (
	"sync"

	"github.com/kiraodb/kiradb/core/storage/errs"
	"github.com/kiraodb/kiradb/core/storage/page"
)

// Manager backs pages with a plain map, guarded by a mutex. Reads of an
// unwritten page id return a zeroed buffer, mirroring a sparse file.
type Manager struct {
	mu       sync.Mutex
	pages    map[page.ID][page.Size]byte
	nextID   page.ID
	writeLog []Write
}

// Write records a single WritePage call, kept for test assertions.
type Write struct {
	PageID page.ID
	Data   [page.Size]byte
}

// New returns an empty in-memory disk manager. Page ids start at start.
func New(start page.ID) *Manager {
	return &Manager{
		pages:  make(map[page.ID][page.Size]byte),
		nextID: start,
	}
}

func (m *Manager) ReadPage(id page.ID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(buf) != page.Size {
		return errs.ErrIO
	}
	data, ok := m.pages[id]
	if !ok {
		// Unwritten pages read as zero, like a sparse file.
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	copy(buf, data[:])
	return nil
}

func (m *Manager) WritePage(id page.ID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(buf) != page.Size {
		return errs.ErrIO
	}
	var data [page.Size]byte
	copy(data[:], buf)
	m.pages[id] = data
	m.writeLog = append(m.writeLog, Write{PageID: id, Data: data})
	return nil
}

func (m *Manager) AllocatePage() (page.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *Manager) DeallocatePage(page.ID) error { return nil }

func (m *Manager) Shutdown() error { return nil }

// Writes returns a copy of every WritePage call observed so far, oldest
// first. It exists for tests that need to assert a particular page's bytes
// reached the disk manager (e.g. eviction-with-writeback scenarios).
func (m *Manager) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writeLog))
	copy(out, m.writeLog)
	return out
}

// LastWrite returns the most recent write observed for id, if any.
func (m *Manager) LastWrite(id page.ID) (Write, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.writeLog) - 1; i >= 0; i-- {
		if m.writeLog[i].PageID == id {
			return m.writeLog[i], true
		}
	}
	return Write{}, false
}
