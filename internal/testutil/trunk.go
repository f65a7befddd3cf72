package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/util"
	"github.com/stretchr/testify/require"
)

// StorePaths creates n empty store path directories inside t.TempDir().
func StorePaths(t testing.TB, n int) trunk.StorePaths {
	root := t.TempDir()
	res := make(trunk.StorePaths, n)

	for i := range res {
		res[i] = filepath.Join(root, "store"+strconv.Itoa(i))
		require.NoError(t, util.MkdirAllX(res[i], 0o700))
	}

	return res
}

// WriteBlock writes the header followed by the content into the trunk file
// at the block offset. Missing directories and files are created.
func WriteBlock(t testing.TB, paths trunk.StorePaths, info trunk.FullInfo, h trunk.Header, content []byte) {
	p, err := paths.TrunkPath(info.Identity())
	require.NoError(t, err)
	require.NoError(t, util.MkdirAllX(filepath.Dir(p), 0o700))

	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0o600)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	b, err := h.MarshalBinary()
	require.NoError(t, err)

	_, err = f.WriteAt(append(b, content...), int64(info.File.Offset))
	require.NoError(t, err)
}

// TrunkFile stores the file of the given type into the block and returns
// its logical filename together with the written header.
func TrunkFile(t testing.TB, paths trunk.StorePaths, info trunk.FullInfo, typ trunk.FileType, content []byte, mtime uint32) (string, trunk.Header) {
	r := rand.New(rand.NewSource(int64(info.File.Offset)))

	ext, err := trunk.FormatExtName("bin", r)
	require.NoError(t, err)

	name := trunk.NameInfo{
		SourceID:  r.Uint32(),
		Timestamp: mtime,
		FileSize:  trunk.MaskTrunkFileSize(uint32(len(content))),
		CRC32:     r.Uint32(),
	}

	logical, err := trunk.BuildFilename(trunk.NameParams{
		Path:    info.Path,
		Name:    name,
		Trunk:   &info.File,
		ExtName: ext,
	})
	require.NoError(t, err)

	h := trunk.Header{
		FileType:  typ,
		AllocSize: info.File.Size,
		FileSize:  uint32(len(content)),
		CRC32:     name.CRC32,
		MTime:     mtime,
		ExtName:   ext,
	}

	WriteBlock(t, paths, info, h, content)

	return logical, h
}
