package buffer

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kiraodb/kiradb/core/storage/page"
	"github.com/kiraodb/kiradb/core/storage/replacer"
)

// BasicGuard is a scoped handle over a pinned frame. Go has no destructors,
// so unlike the RAII guard this core is modeled on, a BasicGuard must be
// released explicitly — callers should `defer g.Drop()` immediately after
// acquiring one, the same discipline the teacher applies to mutexes and
// file handles.
//
// A guard is move-only: MoveInto transfers ownership of the pin to another
// guard and invalidates the source, since Go cannot express move semantics
// at the type level.
type BasicGuard struct {
	pool     *Pool
	frame    *page.Frame
	pageID   page.ID
	isDirty  bool
	released bool
	traceID  uuid.UUID
}

func newBasicGuard(pool *Pool, id page.ID, frame *page.Frame) *BasicGuard {
	g := &BasicGuard{pool: pool, frame: frame, pageID: id, traceID: uuid.New()}
	pool.log.Debug("guard acquired", zap.String("trace_id", g.traceID.String()), zap.Int64("page_id", int64(id)))
	return g
}

// PageID returns the guarded page's id.
func (g *BasicGuard) PageID() page.ID { return g.pageID }

// Data returns the guarded frame's bytes. Callers wanting concurrency
// safety across goroutines should use ReadGuard/WriteGuard instead, which
// hold the frame's latch for the lifetime of the guard.
func (g *BasicGuard) Data() []byte { return g.frame.Data() }

// MarkDirty flags the page as modified; it will be written back on the
// next flush regardless of when Drop runs.
func (g *BasicGuard) MarkDirty() { g.isDirty = true }

// Drop releases the guard's pin exactly once. Re-calling Drop after the
// first call is a no-op, matching the idempotence the spec requires of
// guard release (P5). Dropping a zero-value guard, which holds no frame, is
// also a no-op.
func (g *BasicGuard) Drop() {
	if g.released || g.frame == nil {
		return
	}
	g.released = true
	g.pool.log.Debug("guard dropped", zap.String("trace_id", g.traceID.String()), zap.Int64("page_id", int64(g.pageID)))
	g.pool.UnpinPage(g.pageID, g.isDirty, replacer.AccessGet)
}

// MoveInto transfers this guard's pin to dst, first dropping whatever dst
// was already holding. Self-assignment (g == dst) is a no-op. After
// MoveInto, g no longer holds a pin; only dst does.
func (g *BasicGuard) MoveInto(dst *BasicGuard) {
	if g == dst {
		return
	}
	dst.Drop()
	*dst = *g
	g.released = true // the source no longer owns anything to release
}

// ReadGuard wraps a BasicGuard with the frame's reader latch, held for the
// guard's entire lifetime.
type ReadGuard struct {
	basic *BasicGuard
	frame *page.Frame
}

func newReadGuard(pool *Pool, id page.ID, frame *page.Frame) *ReadGuard {
	frame.RLock()
	return &ReadGuard{basic: newBasicGuard(pool, id, frame), frame: frame}
}

// PageID returns the guarded page's id.
func (g *ReadGuard) PageID() page.ID { return g.basic.PageID() }

// Data returns the guarded frame's bytes, safe to read while the latch is held.
func (g *ReadGuard) Data() []byte { return g.frame.Data() }

// Drop releases the reader latch before unpinning, and is idempotent.
func (g *ReadGuard) Drop() {
	if g.basic.released {
		return
	}
	g.frame.RUnlock()
	g.basic.Drop()
}

// MoveInto transfers the latch and pin to dst, dropping dst's prior hold first.
func (g *ReadGuard) MoveInto(dst *ReadGuard) {
	if g == dst {
		return
	}
	dst.Drop()
	dst.frame = g.frame
	g.basic.MoveInto(dst.basic)
}

// WriteGuard wraps a BasicGuard with the frame's writer latch, held for the
// guard's entire lifetime. Acquiring a WriteGuard marks the page dirty
// immediately, since it is about to be mutated exclusively.
type WriteGuard struct {
	basic *BasicGuard
	frame *page.Frame
}

func newWriteGuard(pool *Pool, id page.ID, frame *page.Frame) *WriteGuard {
	frame.Lock()
	g := &WriteGuard{basic: newBasicGuard(pool, id, frame), frame: frame}
	g.basic.MarkDirty()
	return g
}

// PageID returns the guarded page's id.
func (g *WriteGuard) PageID() page.ID { return g.basic.PageID() }

// Data returns the guarded frame's bytes, safe to mutate while the latch is held.
func (g *WriteGuard) Data() []byte { return g.frame.Data() }

// Drop releases the writer latch before unpinning, and is idempotent.
func (g *WriteGuard) Drop() {
	if g.basic.released {
		return
	}
	g.frame.Unlock()
	g.basic.Drop()
}

// MoveInto transfers the latch and pin to dst, dropping dst's prior hold first.
func (g *WriteGuard) MoveInto(dst *WriteGuard) {
	if g == dst {
		return
	}
	dst.Drop()
	dst.frame = g.frame
	g.basic.MoveInto(dst.basic)
}

// FetchPageBasic fetches id and wraps it in a BasicGuard.
func (p *Pool) FetchPageBasic(id page.ID, accessType replacer.AccessType) (*BasicGuard, bool) {
	frame, ok := p.FetchPage(id, accessType)
	if !ok {
		return nil, false
	}
	return newBasicGuard(p, id, frame), true
}

// FetchPageRead fetches id, pins it, and acquires the frame's reader latch
// after pinning (never before), so the latch acquisition never happens
// while the pool's own mutex is held.
func (p *Pool) FetchPageRead(id page.ID, accessType replacer.AccessType) (*ReadGuard, bool) {
	frame, ok := p.FetchPage(id, accessType)
	if !ok {
		return nil, false
	}
	return newReadGuard(p, id, frame), true
}

// FetchPageWrite fetches id, pins it, and acquires the frame's writer latch
// after pinning.
func (p *Pool) FetchPageWrite(id page.ID, accessType replacer.AccessType) (*WriteGuard, bool) {
	frame, ok := p.FetchPage(id, accessType)
	if !ok {
		return nil, false
	}
	return newWriteGuard(p, id, frame), true
}

// NewPageGuarded allocates a fresh page and returns it already wrapped in
// a BasicGuard, pinned once.
func (p *Pool) NewPageGuarded() (*BasicGuard, bool) {
	id, frame, ok := p.NewPage()
	if !ok {
		return nil, false
	}
	return newBasicGuard(p, id, frame), true
}
