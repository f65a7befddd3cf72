package trunk_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/neofs-trunk/internal/testutil"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolver(t *testing.T, paths trunk.StorePaths, opts ...trunk.Option) *trunk.Resolver {
	r, err := trunk.NewResolver(paths, opts...)
	require.NoError(t, err)
	return r
}

func blockAt(storePath uint8, id, offset, size uint32) trunk.FullInfo {
	return trunk.FullInfo{
		Path: trunk.PathInfo{StorePathIndex: storePath, SubPathHigh: 0x1A, SubPathLow: 0x02},
		File: trunk.FileInfo{ID: id, Offset: offset, Size: size},
	}
}

func TestResolver_TrunkFile(t *testing.T) {
	paths := testutil.StorePaths(t, 2)
	r := newResolver(t, paths)

	info := blockAt(1, 7, 1024, 512)
	content := []byte("hello, trunk")
	logical, h := testutil.TrunkFile(t, paths, info, trunk.FileTypeRegular, content, 1700000000)

	m, err := r.StatLogical(logical)
	require.NoError(t, err)
	require.False(t, m.IsSymlink())
	require.EqualValues(t, len(content), m.Size)
	require.Equal(t, time.Unix(1700000000, 0), m.ModTime)
	require.NotNil(t, m.Trunk)
	require.Equal(t, info, *m.Trunk)
	require.NotNil(t, m.Header)
	require.Equal(t, h, *m.Header)

	data, err := r.ReadContent(*m.Trunk, m.Size)
	require.NoError(t, err)
	require.Equal(t, content, data)

	t.Run("no cache", func(t *testing.T) {
		r := newResolver(t, paths, trunk.WithDecodeCacheSize(0))

		m2, err := r.StatLogical(logical)
		require.NoError(t, err)
		require.Equal(t, m, m2)
	})
}

func TestResolver_HeaderMismatch(t *testing.T) {
	paths := testutil.StorePaths(t, 1)
	r := newResolver(t, paths)

	info := blockAt(0, 1, 0, 256)
	logical, h := testutil.TrunkFile(t, paths, info, trunk.FileTypeRegular, []byte("content"), 100)

	_, err := r.StatLogical(logical)
	require.NoError(t, err)

	// region reused by another file
	h.CRC32++
	testutil.WriteBlock(t, paths, info, h, nil)

	_, err = r.StatLogical(logical)
	require.ErrorIs(t, err, trunk.ErrNotFound)

	t.Run("released block", func(t *testing.T) {
		h.FileType = trunk.FileTypeNone
		testutil.WriteBlock(t, paths, info, h, nil)

		_, err := r.StatLogical(logical)
		require.ErrorIs(t, err, trunk.ErrNotFound)
	})

	t.Run("unknown type", func(t *testing.T) {
		l, lb := testutil.NewBufferedLogger(t, zap.DebugLevel)
		r := newResolver(t, paths, trunk.WithLogger(l))

		h.FileType = 'X'
		testutil.WriteBlock(t, paths, info, h, nil)

		_, err := r.StatLogical(logical)
		require.ErrorIs(t, err, trunk.ErrNotFound)
		lb.AssertMessage(zap.ErrorLevel, "invalid trunk file type")
	})
}

func TestResolver_MissingTrunkFile(t *testing.T) {
	paths := testutil.StorePaths(t, 1)
	src := testutil.StorePaths(t, 1)

	// the name is valid but nothing is written to paths
	logical, _ := testutil.TrunkFile(t, src, blockAt(0, 3, 0, 100), trunk.FileTypeRegular, []byte("x"), 1)

	_, err := newResolver(t, paths).StatLogical(logical)
	require.ErrorIs(t, err, trunk.ErrNotFound)
}

func TestResolver_ShortRead(t *testing.T) {
	paths := testutil.StorePaths(t, 1)
	r := newResolver(t, paths)

	info := blockAt(0, 4, 0, 100)
	logical, _ := testutil.TrunkFile(t, paths, info, trunk.FileTypeRegular, []byte("abc"), 1)

	p, err := paths.TrunkPath(info.Identity())
	require.NoError(t, err)
	require.NoError(t, os.Truncate(p, trunk.HeaderSize-1))

	_, err = r.StatLogical(logical)
	require.ErrorIs(t, err, trunk.ErrIO)

	_, err = r.ReadContent(info, 3)
	require.ErrorIs(t, err, trunk.ErrIO)
}

func TestResolver_SlaveFile(t *testing.T) {
	paths := testutil.StorePaths(t, 2)
	r := newResolver(t, paths)

	master := blockAt(1, 10, 4096, 1024)
	masterName, _ := testutil.TrunkFile(t, paths, master, trunk.FileTypeRegular, make([]byte, 700), 1600000000)

	slave := blockAt(0, 11, 0, 128)
	slaveName, _ := testutil.TrunkFile(t, paths, slave, trunk.FileTypeLink, []byte(masterName), 1700000000)

	idx, trueName, err := paths.Split(slaveName)
	require.NoError(t, err)

	m, err := r.Lstat(idx, trueName)
	require.NoError(t, err)
	require.True(t, m.IsSymlink())
	require.EqualValues(t, len(masterName), m.Size)

	m, err = r.Stat(idx, trueName)
	require.NoError(t, err)
	require.False(t, m.IsSymlink())
	require.EqualValues(t, 700, m.Size)
	require.Equal(t, time.Unix(1600000000, 0), m.ModTime)
	require.Equal(t, master, *m.Trunk)

	mm, err := r.StatLogical(masterName)
	require.NoError(t, err)
	require.Equal(t, mm, m)

	t.Run("one hop", func(t *testing.T) {
		chained := blockAt(0, 12, 0, 128)
		chainedName, _ := testutil.TrunkFile(t, paths, chained, trunk.FileTypeLink, []byte(slaveName), 1)

		m, err := r.StatLogical(chainedName)
		require.NoError(t, err)
		require.True(t, m.IsSymlink())
		require.Equal(t, slave, *m.Trunk)
	})

	t.Run("invalid target", func(t *testing.T) {
		bad := blockAt(0, 13, 0, 128)
		badName, _ := testutil.TrunkFile(t, paths, bad, trunk.FileTypeLink, []byte("M05/00/00/aaaaaaaaaaaaaaaa"), 1)

		_, err := r.StatLogical(badName)
		require.ErrorIs(t, err, trunk.ErrInvalidInput)
	})

	t.Run("stale master", func(t *testing.T) {
		var h trunk.Header
		testutil.WriteBlock(t, paths, master, h, nil)

		_, err := r.StatLogical(slaveName)
		require.ErrorIs(t, err, trunk.ErrNotFound)
	})
}

func TestResolver_RegularFile(t *testing.T) {
	paths := testutil.StorePaths(t, 1)
	r := newResolver(t, paths)

	const trueName = "00/01/wKgAAWVXfOAAAAAAAAAAAAAAAAA123.txt"

	p, err := paths.FilePath(0, trueName)
	require.NoError(t, err)

	_, err = r.StatLogical("M00/" + trueName)
	require.ErrorIs(t, err, trunk.ErrNotFound)

	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o700))
	require.NoError(t, os.WriteFile(p, []byte("regular"), 0o600))

	m, err := r.StatLogical("M00/" + trueName)
	require.NoError(t, err)
	require.Nil(t, m.Trunk)
	require.EqualValues(t, 7, m.Size)
	require.True(t, m.Mode.IsRegular())

	t.Run("symlink", func(t *testing.T) {
		const linkName = "00/01/link"

		lp, err := paths.FilePath(0, linkName)
		require.NoError(t, err)
		require.NoError(t, os.Symlink(p, lp))

		m, err := r.Lstat(0, linkName)
		require.NoError(t, err)
		require.NotZero(t, m.Mode&fs.ModeSymlink)

		m, err = r.Stat(0, linkName)
		require.NoError(t, err)
		require.EqualValues(t, 7, m.Size)
	})

	t.Run("invalid store path", func(t *testing.T) {
		_, err := r.StatLogical("M01/" + trueName)
		require.ErrorIs(t, err, trunk.ErrInvalidInput)
	})
}
