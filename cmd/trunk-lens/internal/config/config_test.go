package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/neofs-trunk/cmd/internal/configvalidator"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/config"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/config/configtest"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/allocator"
	"github.com/stretchr/testify/require"
)

const example = "example/trunk"

func checkExample(t *testing.T, c *config.Config) {
	require.Equal(t, []string{"/srv/fdfs/storage0", "/srv/fdfs/storage1"}, c.StorePaths)
	require.Equal(t, 16, c.Workers)

	require.Equal(t, config.Logger{Level: "debug", Encoding: "json", Timestamp: true}, c.Logger)

	require.Equal(t, config.Trunk{
		FileSize:        64 << 20,
		SlotMinSize:     256,
		SlotMaxSize:     16 << 20,
		SubdirCount:     128,
		DecodeCacheSize: 4096,
	}, c.Trunk)

	require.Equal(t, config.Snapshot{Path: "/srv/fdfs/data/trunk.db", Timeout: 5 * time.Second}, c.Snapshot)

	opts, err := c.AllocatorOptions()
	require.NoError(t, err)

	_, err = allocator.New(opts...)
	require.NoError(t, err)
}

func TestLoad(t *testing.T) {
	t.Run("files", func(t *testing.T) {
		configtest.ForEachFileType(t, example, func(c *config.Config) {
			checkExample(t, c)
		})
	})

	t.Run("env", func(t *testing.T) {
		configtest.LoadEnv(t, example+".env")
		checkExample(t, configtest.EmptyConfig(t))
	})

	t.Run("defaults", func(t *testing.T) {
		c := configtest.EmptyConfig(t)

		require.Empty(t, c.StorePaths)
		require.Equal(t, 8, c.Workers)
		require.Equal(t, "warn", c.Logger.Level)
		require.EqualValues(t, allocator.DefaultTrunkFileSize, c.Trunk.FileSize)
		require.EqualValues(t, allocator.DefaultSlotMinSize, c.Trunk.SlotMinSize)
		require.EqualValues(t, allocator.DefaultSlotMaxSize, c.Trunk.SlotMaxSize)
		require.Equal(t, time.Second, c.Snapshot.Timeout)

		_, err := c.Paths()
		require.Error(t, err)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("TRUNK_LOGGER_LEVEL", "error")

		c, err := config.Load(example + ".yaml")
		require.NoError(t, err)
		require.Equal(t, "error", c.Logger.Level)
	})

	t.Run("home directory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		path := filepath.Join(home, ".config", "trunk-lens", "config.yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte("store_paths: [\"~/store\"]\n"), 0o600))

		c, err := config.Load("")
		require.NoError(t, err)
		require.Equal(t, []string{filepath.Join(home, "store")}, c.StorePaths)

		paths, err := c.Paths()
		require.NoError(t, err)
		require.Len(t, paths, 1)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trunk:\n  file_sise: 1M\n"), 0o600))

		_, err := config.Load(path)
		require.ErrorIs(t, err, configvalidator.ErrUnknownField)
	})

	t.Run("invalid size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trunk:\n  file_size: 64Q\n"), 0o600))

		_, err := config.Load(path)
		require.Error(t, err)
	})

	t.Run("size out of range", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trunk:\n  file_size: 8G\n"), 0o600))

		c, err := config.Load(path)
		require.NoError(t, err)

		_, err = c.AllocatorOptions()
		require.Error(t, err)
	})
}
