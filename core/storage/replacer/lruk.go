// Package replacer implements the LRU-K eviction policy: among evictable
// frames, prefer the one whose backward K-distance is infinite (fewer than
// K recorded accesses) over one with K accesses; break ties by earliest
// first-recorded access. It is grounded on the teacher's own LRU tracking
// in core/write_engine/memtable.BufferPoolManager (container/list-based
// recency queues), generalized from single-entry LRU to K-history LRU-K.
// Every access, eviction, and evictable-flag toggle is zap-logged, and every
// access, eviction, and evictable-count change is reported through Metrics.
package replacer

import (
	"container/list"
	"sync"

	"go.uber.org/zap"

	"github.com/kiraodb/kiradb/core/storage/errs"
	"github.com/kiraodb/kiradb/core/storage/page"
)

// AccessType distinguishes the kind of access recorded, reserved for future
// policies (e.g. scan-resistant weighting); this core's ordering does not
// yet vary by it.
type AccessType int

const (
	AccessGet AccessType = iota
	AccessScan
)

// record is the per-frame bookkeeping the replacer keeps.
type record struct {
	frameID   page.FrameID
	history   []uint64 // bounded to k entries, oldest first
	evictable bool

	// elem points into whichever of infinite/finite the record currently
	// sits in, or is nil when the record is not evictable. The distance
	// this core computes is binary (infinite once history is shorter than
	// k, zero once full — see Ordering detail in the design docs), so a
	// pair of queues, each kept sorted by history[0] (the record's
	// earliest-recorded access still in its window), realizes the
	// "(distance, earliest_timestamp, frame_id)" index without needing an
	// ordered-map library (none in the dependency corpus takes a custom
	// comparator cheaply; see DESIGN.md). Position within a queue is
	// therefore keyed on the timestamp itself, not on the order in which
	// RecordAccess/SetEvictable happened to be called.
	elem *list.Element
}

func (r *record) hasKHistory(k int) bool { return len(r.history) >= k }

// firstAccess is the timestamp queues order by: the oldest entry still in
// the record's bounded history window.
func (r *record) firstAccess() uint64 { return r.history[0] }

// LRUK tracks per-frame access history for pool_size frames and selects
// eviction victims among those marked evictable.
type LRUK struct {
	mu sync.Mutex

	k        int
	poolSize int
	counter  uint64 // monotonically increasing logical timestamp, local to this replacer

	records map[page.FrameID]*record

	// infinite holds evictable frames with fewer than k accesses, ordered
	// by first access (oldest at Front). finite holds evictable frames
	// with k or more accesses, likewise ordered by first access within
	// their current k-window.
	infinite *list.List
	finite   *list.List

	log     *zap.Logger
	metrics Metrics
}

// New returns a replacer over poolSize frames, each ranked by its
// backward-k distance. A nil metrics disables instrumentation.
func New(poolSize, k int, log *zap.Logger, metrics Metrics) *LRUK {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &LRUK{
		k:        k,
		poolSize: poolSize,
		records:  make(map[page.FrameID]*record),
		infinite: list.New(),
		finite:   list.New(),
		log:      log,
		metrics:  metrics,
	}
}

// evictableSizeLocked reports the current evictable count. Callers must
// hold r.mu.
func (r *LRUK) evictableSizeLocked() int {
	return r.infinite.Len() + r.finite.Len()
}

func (r *LRUK) validFrame(id page.FrameID) bool {
	return id >= 0 && int(id) < r.poolSize
}

// RecordAccess appends a logical timestamp to frameID's history, evicting
// the oldest entry once the history exceeds k. If the frame is currently
// evictable it is re-indexed under its new key.
func (r *LRUK) RecordAccess(frameID page.FrameID, accessType AccessType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validFrame(frameID) {
		return errs.ErrInvalidFrameID
	}

	rec, ok := r.records[frameID]
	if !ok {
		rec = &record{frameID: frameID}
		r.records[frameID] = rec
	}

	r.counter++
	rec.history = append(rec.history, r.counter)
	if len(rec.history) > r.k {
		rec.history = rec.history[len(rec.history)-r.k:]
	}

	if rec.evictable {
		r.reindexLocked(rec)
	}

	r.metrics.Access()
	r.log.Debug("replacer recorded access",
		zap.Int("frame_id", int(frameID)),
		zap.Int("access_type", int(accessType)),
		zap.Int("history_len", len(rec.history)))
	return nil
}

// reindexLocked moves rec into the queue matching its current distance
// bucket, inserted in sorted order by rec.firstAccess() so that a record's
// queue position depends only on its own access history, never on the
// order in which RecordAccess/SetEvictable happened to run. Callers must
// hold r.mu and rec.evictable == true.
func (r *LRUK) reindexLocked(rec *record) {
	if rec.elem != nil {
		// The access that triggered this reindex may have moved rec to the
		// other bucket; List.Remove ignores an element of a different list.
		r.infinite.Remove(rec.elem)
		r.finite.Remove(rec.elem)
		rec.elem = nil
	}
	target := r.listFor(rec)
	for e := target.Front(); e != nil; e = e.Next() {
		if e.Value.(*record).firstAccess() > rec.firstAccess() {
			rec.elem = target.InsertBefore(rec, e)
			return
		}
	}
	rec.elem = target.PushBack(rec)
}

func (r *LRUK) listFor(rec *record) *list.List {
	if rec.hasKHistory(r.k) {
		return r.finite
	}
	return r.infinite
}

// SetEvictable toggles frameID's evictable flag. It is idempotent and a
// no-op for an untracked frame.
func (r *LRUK) SetEvictable(frameID page.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[frameID]
	if !ok || rec.evictable == evictable {
		return
	}
	rec.evictable = evictable
	if evictable {
		r.reindexLocked(rec)
	} else if rec.elem != nil {
		r.listFor(rec).Remove(rec.elem)
		rec.elem = nil
	}

	r.metrics.SetEvictableSize(r.evictableSizeLocked())
	r.log.Debug("replacer set evictable",
		zap.Int("frame_id", int(frameID)),
		zap.Bool("evictable", evictable))
}

// Evict removes and returns the highest-priority victim: an infinite-
// distance frame (fewer than k accesses) with the earliest first access if
// any exist, else the finite-distance frame with the earliest first access.
// It reports false when no evictable frame exists.
func (r *LRUK) Evict() (page.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var victim *list.Element
	var from *list.List
	if r.infinite.Len() > 0 {
		victim, from = r.infinite.Front(), r.infinite
	} else if r.finite.Len() > 0 {
		victim, from = r.finite.Front(), r.finite
	} else {
		return 0, false
	}

	rec := from.Remove(victim).(*record)
	delete(r.records, rec.frameID)

	r.metrics.Evicted()
	r.metrics.SetEvictableSize(r.evictableSizeLocked())
	r.log.Debug("replacer evicted frame", zap.Int("frame_id", int(rec.frameID)))
	return rec.frameID, true
}

// Remove drops frameID's record unconditionally, provided it is evictable.
// The caller must have already ensured the frame is not pinned; a
// non-evictable or untracked frame id is a no-op, matching the source
// core's behavior (see DESIGN.md).
func (r *LRUK) Remove(frameID page.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[frameID]
	if !ok || !rec.evictable {
		return
	}
	if rec.elem != nil {
		r.listFor(rec).Remove(rec.elem)
	}
	delete(r.records, frameID)
	r.metrics.SetEvictableSize(r.evictableSizeLocked())
}

// Size returns the number of currently evictable frames.
func (r *LRUK) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infinite.Len() + r.finite.Len()
}
