package replacer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kiraodb/kiradb/core/storage/errs"
	"github.com/kiraodb/kiradb/core/storage/page"
)

func TestRecordAccessRejectsInvalidFrame(t *testing.T) {
	r := New(4, 2, nil, nil)
	require.ErrorIs(t, r.RecordAccess(page.FrameID(-1), AccessGet), errs.ErrInvalidFrameID)
	require.ErrorIs(t, r.RecordAccess(page.FrameID(4), AccessGet), errs.ErrInvalidFrameID)
}

func TestEvictPrefersInfiniteDistance(t *testing.T) {
	r := New(4, 2, nil, nil)

	// Frame 0 gets a full k-history (finite distance).
	require.NoError(t, r.RecordAccess(0, AccessGet))
	require.NoError(t, r.RecordAccess(0, AccessGet))
	r.SetEvictable(0, true)

	// Frame 1 gets only one access (infinite distance, k=2).
	require.NoError(t, r.RecordAccess(1, AccessGet))
	r.SetEvictable(1, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), victim, "infinite-distance frame must be evicted before finite-distance")
}

func TestEvictTiesBreakByEarliestFirstAccess(t *testing.T) {
	r := New(4, 2, nil, nil)

	require.NoError(t, r.RecordAccess(0, AccessGet))
	require.NoError(t, r.RecordAccess(1, AccessGet))
	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(0), victim, "earlier first access should be evicted first among ties")
}

func TestEvictTieBreakIsIndependentOfToggleOrder(t *testing.T) {
	r := New(4, 2, nil, nil)

	// Frame 0 is accessed first (earlier timestamp) but marked evictable
	// second; frame 1 is accessed second but marked evictable first. The
	// victim must still be frame 0, since the tie-break is keyed on each
	// record's own first-access timestamp, not on SetEvictable call order.
	require.NoError(t, r.RecordAccess(0, AccessGet))
	require.NoError(t, r.RecordAccess(1, AccessGet))
	r.SetEvictable(1, true)
	r.SetEvictable(0, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(0), victim, "earliest first access must win regardless of toggle order")
}

func TestSetEvictableIsIdempotentAndIgnoresUntracked(t *testing.T) {
	r := New(4, 2, nil, nil)
	r.SetEvictable(0, true) // untracked frame, no-op
	require.Equal(t, 0, r.Size())

	require.NoError(t, r.RecordAccess(0, AccessGet))
	r.SetEvictable(0, true)
	require.Equal(t, 1, r.Size())
	r.SetEvictable(0, true) // already evictable, no-op
	require.Equal(t, 1, r.Size())
	r.SetEvictable(0, false)
	require.Equal(t, 0, r.Size())
}

func TestRemoveIsNoOpOnNonEvictableOrUntracked(t *testing.T) {
	r := New(4, 2, nil, nil)
	r.Remove(0) // untracked

	require.NoError(t, r.RecordAccess(0, AccessGet))
	r.Remove(0) // tracked but not evictable
	require.Equal(t, 0, r.Size())

	// Confirm the record survived the no-op remove and can still be evicted
	// once marked evictable.
	r.SetEvictable(0, true)
	require.Equal(t, 1, r.Size())
	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(0), victim)
}

func TestRecordAccessTruncatesHistoryToK(t *testing.T) {
	r := New(4, 2, nil, nil)
	require.NoError(t, r.RecordAccess(0, AccessGet))
	require.NoError(t, r.RecordAccess(0, AccessGet))
	require.NoError(t, r.RecordAccess(0, AccessGet))
	rec := r.records[0]
	require.Len(t, rec.history, 2)
}

func TestEvictReturnsFalseWhenNothingEvictable(t *testing.T) {
	r := New(4, 2, nil, nil)
	_, ok := r.Evict()
	require.False(t, ok)

	require.NoError(t, r.RecordAccess(0, AccessGet))
	_, ok = r.Evict()
	require.False(t, ok, "frame 0 was never marked evictable")
}
