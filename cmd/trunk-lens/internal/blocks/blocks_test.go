package blocks

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/neofs-trunk/cmd/internal/cmderr"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/allocator"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/snapshot"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const snapshotDump = `0 1 2 3 0 100
0 1 2 3 200 300
1 5 6 9 0 1024
`

func block(idx, high, low uint8, id, offset, size uint32) trunk.FullInfo {
	return trunk.FullInfo{
		Path: trunk.PathInfo{StorePathIndex: idx, SubPathHigh: high, SubPathLow: low},
		File: trunk.FileInfo{ID: id, Offset: offset, Size: size},
	}
}

// newConfig writes the config with two store paths and small trunk sizes,
// the snapshot at the configured path holds the snapshotDump blocks.
func newConfig(t *testing.T) (string, string) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "trunk.db")

	b, err := yaml.Marshal(map[string]any{
		"store_paths": []string{filepath.Join(dir, "store0"), filepath.Join(dir, "store1")},
		"trunk": map[string]any{
			"file_size":     "1k",
			"slot_min_size": "64",
			"slot_max_size": "512b",
		},
		"snapshot": map[string]any{
			"path": snap,
		},
	})
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, b, 0o600))

	a, err := allocator.New(
		allocator.WithStorePathCount(2),
		allocator.WithTrunkFileSize(1024),
		allocator.WithSlotSizes(64, 512))
	require.NoError(t, err)

	for _, b := range []trunk.FullInfo{
		block(1, 5, 6, 9, 0, 1024),
		block(0, 1, 2, 3, 200, 300),
		block(0, 1, 2, 3, 0, 100),
	} {
		require.NoError(t, a.Free(b))
	}

	s, err := snapshot.Open(snap)
	require.NoError(t, err)
	require.NoError(t, a.Save(s))
	require.NoError(t, s.Close())

	return cfgPath, snap
}

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	buf := new(bytes.Buffer)

	// mirror the trunk-lens root command, which silences usage on errors
	Root.SilenceUsage = true
	Root.SetOut(buf)
	Root.SetErr(io.Discard)
	Root.SetIn(stdin)
	Root.SetArgs(args)

	err := Root.Execute()

	return buf.String(), err
}

func writeFile(t *testing.T, data string) string {
	p := filepath.Join(t.TempDir(), "dump.txt")
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

func TestDump(t *testing.T) {
	cfg, _ := newConfig(t)

	t.Run("stdout", func(t *testing.T) {
		out, err := execute(t, nil, "dump", "--config", cfg, "--snapshot", "", "-o", "", "--compress=false")
		require.NoError(t, err)
		require.Equal(t, snapshotDump, out)
	})

	t.Run("compressed file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "dump.zst")

		out, err := execute(t, nil, "dump", "--config", cfg, "--snapshot", "", "-o", p, "--compress")
		require.NoError(t, err)
		require.Empty(t, out)

		data, err := os.ReadFile(p)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(data, zstdMagic))

		rc, err := openDump(Root, p)
		require.NoError(t, err)

		plain, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		require.Equal(t, snapshotDump, string(plain))
	})

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := execute(t, nil, "dump", "--config", cfg, "--snapshot", filepath.Join(t.TempDir(), "none.db"),
			"-o", "", "--compress=false")
		require.Error(t, err)
	})
}

func verify(t *testing.T, cfg string, stdin io.Reader, dump string) (VerifyReport, error) {
	out, err := execute(t, stdin, "verify", "--config", cfg, "--format", "json", dump)

	var rep VerifyReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))

	return rep, err
}

func TestVerify(t *testing.T) {
	cfg, _ := newConfig(t)

	t.Run("valid", func(t *testing.T) {
		rep, err := verify(t, cfg, nil, writeFile(t, snapshotDump))
		require.NoError(t, err)
		require.Equal(t, VerifyReport{Blocks: 3, TrunkFiles: 2, Conflicts: []Conflict{}}, rep)
	})

	t.Run("compressed stdin", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, compressed(func(w io.Writer) error {
			_, err := io.WriteString(w, snapshotDump)
			return err
		})(buf))

		rep, err := verify(t, cfg, buf, "-")
		require.NoError(t, err)
		require.Equal(t, 3, rep.Blocks)
	})

	t.Run("conflicts", func(t *testing.T) {
		rep, err := verify(t, cfg, nil, writeFile(t, snapshotDump+"0 1 2 3 250 10\n0 1 2 3 0 100\n"))
		require.Error(t, err)
		require.Equal(t, cmderr.CodeFailed, cmderr.Code(err))

		require.Equal(t, 5, rep.Blocks)
		require.Equal(t, 2, rep.TrunkFiles)
		require.Len(t, rep.Conflicts, 2)
		require.EqualValues(t, 250, rep.Conflicts[0].Block.Offset)
		require.Contains(t, rep.Conflicts[1].Error, "already exists")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := execute(t, nil, "verify", "--config", cfg, "--format", "json", writeFile(t, "0 1 2\n"))
		require.ErrorIs(t, err, trunk.ErrInvalidInput)
	})
}

func TestStat(t *testing.T) {
	cfg, _ := newConfig(t)

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, nil, "stat", "--config", cfg, "--snapshot", "", "--format", "json", "--prometheus=false")
		require.NoError(t, err)

		var rep StatReport
		require.NoError(t, json.Unmarshal([]byte(out), &rep))

		require.Equal(t, StatReport{
			TrunkFiles: 2,
			Blocks:     3,
			LastID:     9,
			FreeSpace:  1424,
			Paths: []PathStat{
				{StorePathIndex: 0, Blocks: 2, FreeSpace: 400, Largest: 300},
				{StorePathIndex: 1, Blocks: 1, FreeSpace: 1024, Largest: 1024},
			},
		}, rep)
	})

	t.Run("table", func(t *testing.T) {
		out, err := execute(t, nil, "stat", "--config", cfg, "--snapshot", "", "--format", "table", "--prometheus=false")
		require.NoError(t, err)
		require.Contains(t, out, "1424")
	})

	t.Run("prometheus", func(t *testing.T) {
		out, err := execute(t, nil, "stat", "--config", cfg, "--snapshot", "", "--prometheus")
		require.NoError(t, err)
		require.Contains(t, out, "neofs_trunk_registry_blocks 3\n")
		require.Contains(t, out, "neofs_trunk_registry_trunk_files 2\n")
		require.Contains(t, out, "neofs_trunk_allocator_free_space")
	})
}

func TestImport(t *testing.T) {
	cfg, _ := newConfig(t)

	t.Run("replace", func(t *testing.T) {
		snap := filepath.Join(t.TempDir(), "imported.db")
		dump := writeFile(t, "0 0 0 20 0 512\n0 0 0 20 512 10\n1 0 0 21 64 64\n")

		out, err := execute(t, nil, "import", "--config", cfg, "--snapshot", snap, dump)
		require.NoError(t, err)
		require.Equal(t, "2 blocks imported, last trunk id 21\n", out)

		out, err = execute(t, nil, "dump", "--config", cfg, "--snapshot", snap, "-o", "", "--compress=false")
		require.NoError(t, err)
		require.Equal(t, "0 0 0 20 0 512\n1 0 0 21 64 64\n", out)
	})

	t.Run("stdin", func(t *testing.T) {
		snap := filepath.Join(t.TempDir(), "imported.db")

		_, err := execute(t, strings.NewReader(snapshotDump), "import", "--config", cfg, "--snapshot", snap, "-")
		require.NoError(t, err)

		out, err := execute(t, nil, "dump", "--config", cfg, "--snapshot", snap, "-o", "", "--compress=false")
		require.NoError(t, err)
		require.Equal(t, snapshotDump, out)
	})

	t.Run("conflict", func(t *testing.T) {
		snap := filepath.Join(t.TempDir(), "imported.db")

		_, err := execute(t, nil, "import", "--config", cfg, "--snapshot", snap, writeFile(t, snapshotDump+"0 1 2 3 0 100\n"))
		require.ErrorIs(t, err, trunk.ErrConflict)
		require.Equal(t, cmderr.CodeFailed, cmderr.Code(err))

		_, err = os.Stat(snap)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown store path", func(t *testing.T) {
		snap := filepath.Join(t.TempDir(), "imported.db")

		_, err := execute(t, nil, "import", "--config", cfg, "--snapshot", snap, writeFile(t, "2 0 0 1 0 512\n"))
		require.ErrorIs(t, err, trunk.ErrInvalidInput)
		require.Equal(t, cmderr.CodeInternal, cmderr.Code(err))
	})

	t.Run("malformed", func(t *testing.T) {
		snap := filepath.Join(t.TempDir(), "imported.db")

		_, err := execute(t, nil, "import", "--config", cfg, "--snapshot", snap, writeFile(t, "0 1 2\n"))
		require.ErrorIs(t, err, trunk.ErrInvalidInput)
		require.Equal(t, cmderr.CodeInternal, cmderr.Code(err))
	})

	t.Run("broken compressed dump", func(t *testing.T) {
		snap := filepath.Join(t.TempDir(), "imported.db")
		dump := writeFile(t, "\x28\xb5\x2f\xfdgarbage")

		_, err := execute(t, nil, "import", "--config", cfg, "--snapshot", snap, dump)
		require.Error(t, err)
		require.Equal(t, cmderr.CodeInternal, cmderr.Code(err))
	})
}
