package memdisk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kiraodb/kiradb/core/storage/page"
)

func TestReadUnwrittenPageReturnsZeroes(t *testing.T) {
	m := New(0)
	buf := make([]byte, page.Size)
	require.NoError(t, m.ReadPage(page.ID(0), buf))
	for _, b := range buf {
		require.Zero(t, b)
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	m := New(0)
	id, err := m.AllocatePage()
	require.NoError(t, err)

	data := make([]byte, page.Size)
	copy(data, []byte("roundtrip"))
	require.NoError(t, m.WritePage(id, data))

	buf := make([]byte, page.Size)
	require.NoError(t, m.ReadPage(id, buf))
	require.Equal(t, "roundtrip", string(buf[:9]))
}

func TestAllocatePageIsMonotonic(t *testing.T) {
	m := New(5)
	id1, err := m.AllocatePage()
	require.NoError(t, err)
	id2, err := m.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, page.ID(5), id1)
	require.Equal(t, page.ID(6), id2)
}

func TestLastWriteTracksMostRecent(t *testing.T) {
	m := New(0)
	buf1 := make([]byte, page.Size)
	copy(buf1, []byte("first"))
	buf2 := make([]byte, page.Size)
	copy(buf2, []byte("second"))

	require.NoError(t, m.WritePage(page.ID(1), buf1))
	require.NoError(t, m.WritePage(page.ID(1), buf2))

	w, ok := m.LastWrite(page.ID(1))
	require.True(t, ok)
	require.Equal(t, "second", string(w.Data[:6]))

	_, ok = m.LastWrite(page.ID(999))
	require.False(t, ok)
}

func TestWritesReturnsFullHistory(t *testing.T) {
	m := New(0)
	buf := make([]byte, page.Size)
	require.NoError(t, m.WritePage(page.ID(1), buf))
	require.NoError(t, m.WritePage(page.ID(2), buf))
	require.Len(t, m.Writes(), 2)
}
