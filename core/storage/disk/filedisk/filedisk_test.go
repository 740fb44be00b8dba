package filedisk

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kiraodb/kiradb/core/storage/page"
)

func TestOpenCreatesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "data.db"))
	require.NoError(t, err)
	defer m.Shutdown()

	buf := make([]byte, page.Size)
	require.NoError(t, m.ReadPage(page.ID(0), buf))
	for _, b := range buf {
		require.Zero(t, b)
	}
}

func TestAllocateWriteReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "data.db"))
	require.NoError(t, err)
	defer m.Shutdown()

	id, err := m.AllocatePage()
	require.NoError(t, err)

	data := make([]byte, page.Size)
	copy(data, []byte("filebacked"))
	require.NoError(t, m.WritePage(id, data))

	buf := make([]byte, page.Size)
	require.NoError(t, m.ReadPage(id, buf))
	require.Equal(t, "filebacked", string(buf[:10]))
}

func TestReopenPreservesPageCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.db")

	m1, err := Open(path)
	require.NoError(t, err)
	_, err = m1.AllocatePage()
	require.NoError(t, err)
	_, err = m1.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, m1.Shutdown())

	m2, err := Open(path)
	require.NoError(t, err)
	defer m2.Shutdown()

	id3, err := m2.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, page.ID(2), id3)
}

func TestLastWriteTracksRecentCache(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "data.db"))
	require.NoError(t, err)
	defer m.Shutdown()

	id, err := m.AllocatePage()
	require.NoError(t, err)
	data := make([]byte, page.Size)
	copy(data, []byte("cached"))
	require.NoError(t, m.WritePage(id, data))

	snapshot, ok := m.LastWrite(id)
	require.True(t, ok)
	require.Equal(t, "cached", string(snapshot[:6]))
}

func TestWritePageRejectsWrongSizedBuffer(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "data.db"))
	require.NoError(t, err)
	defer m.Shutdown()

	err = m.WritePage(page.ID(0), make([]byte, 10))
	require.Error(t, err)
}
