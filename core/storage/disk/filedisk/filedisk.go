// Package filedisk is the production disk.Manager: a single flat file with
// one fixed-size slot per page id. It is grounded on the teacher's
// core/indexing/btree DiskManager, extended with optional throughput
// shaping and a bounded recent-write cache for diagnostics.
package filedisk

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kiraodb/kiradb/core/storage/errs"
	"github.com/kiraodb/kiradb/core/storage/page"
)

// recentWrites bounds how many WritePage calls the diagnostic cache retains.
const recentWrites = 256

// Manager reads and writes fixed-size pages at offset id*page.Size in a
// single backing file.
type Manager struct {
	mu       sync.Mutex
	file     *os.File
	numPages int64
	log      *zap.Logger

	// limiter throttles read/write throughput when non-nil, modeling a
	// provisioned-IOPS disk the way core/storage_engine/common.CopyThrottled
	// throttles bulk file copies in the teacher repo.
	limiter *rate.Limiter

	// recent is a bounded diagnostic record of the last WritePage calls,
	// independent of the file itself, so tests can assert "this page's
	// bytes reached the disk manager" without re-reading the file.
	recent *lru.Cache[page.ID, [page.Size]byte]
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithRateLimit throttles reads and writes to at most bytesPerSec.
func WithRateLimit(bytesPerSec int) Option {
	return func(m *Manager) {
		m.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), page.Size)
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Open opens (creating if necessary) path as a page-addressed flat file.
func Open(path string, opts ...Option) (*Manager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", errs.ErrIO, path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", errs.ErrIO, path, err)
	}
	cache, err := lru.New[page.ID, [page.Size]byte](recentWrites)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("building recent-write cache: %w", err)
	}
	m := &Manager{
		file:     f,
		numPages: fi.Size() / page.Size,
		log:      zap.NewNop(),
		recent:   cache,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log.Info("filedisk opened", zap.String("path", path), zap.Int64("num_pages", m.numPages))
	return m, nil
}

func (m *Manager) throttle(n int) {
	if m.limiter == nil {
		return
	}
	_ = m.limiter.WaitN(context.Background(), n)
}

func (m *Manager) ReadPage(id page.ID, buf []byte) error {
	if len(buf) != page.Size {
		return fmt.Errorf("%w: read buffer size %d != page size %d", errs.ErrIO, len(buf), page.Size)
	}
	m.throttle(page.Size)
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * page.Size
	n, err := m.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w: reading page %d: %v", errs.ErrIO, id, err)
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	m.log.Debug("read page", zap.Int64("page_id", int64(id)))
	return nil
}

func (m *Manager) WritePage(id page.ID, buf []byte) error {
	if len(buf) != page.Size {
		return fmt.Errorf("%w: write buffer size %d != page size %d", errs.ErrIO, len(buf), page.Size)
	}
	m.throttle(page.Size)
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * page.Size
	if _, err := m.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("%w: writing page %d: %v", errs.ErrIO, id, err)
	}
	if int64(id)+1 > m.numPages {
		m.numPages = int64(id) + 1
	}
	var snapshot [page.Size]byte
	copy(snapshot[:], buf)
	m.recent.Add(id, snapshot)
	m.log.Debug("wrote page", zap.Int64("page_id", int64(id)))
	return nil
}

func (m *Manager) AllocatePage() (page.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := page.ID(m.numPages)
	empty := make([]byte, page.Size)
	if _, err := m.file.WriteAt(empty, int64(id)*page.Size); err != nil {
		return page.Invalid, fmt.Errorf("%w: extending file for page %d: %v", errs.ErrIO, id, err)
	}
	m.numPages++
	return id, nil
}

// DeallocatePage is a reserved hook for free-space management; it performs
// no action in this core, matching the teacher's own placeholder.
func (m *Manager) DeallocatePage(page.ID) error { return nil }

func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("%w: syncing on shutdown: %v", errs.ErrIO, err)
	}
	return m.file.Close()
}

// LastWrite returns the most recently written bytes for id from the bounded
// diagnostic cache, if still retained.
func (m *Manager) LastWrite(id page.ID) ([page.Size]byte, bool) {
	v, ok := m.recent.Get(id)
	return v, ok
}
