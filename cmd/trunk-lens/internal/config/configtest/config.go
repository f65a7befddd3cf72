package configtest

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/config"
	"github.com/stretchr/testify/require"
)

func init() {
	// tests change HOME
	homedir.DisableCache = true
}

// ForEachFileType passes configs read from next files:
//   - `<pref>.yaml`;
//   - `<pref>.json`.
func ForEachFileType(t testing.TB, pref string, f func(*config.Config)) {
	for _, p := range []string{pref + ".yaml", pref + ".json"} {
		c, err := config.Load(p)
		require.NoError(t, err, p)

		f(c)
	}
}

// LoadEnv sets the variables of the `KEY=value` file for the test
// duration.
func LoadEnv(t *testing.T, path string) {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		k, v, ok := strings.Cut(line, "=")
		require.True(t, ok, line)

		t.Setenv(k, strings.Trim(v, `"`))
	}

	require.NoError(t, s.Err())
}

// EmptyConfig returns config with the default values only.
func EmptyConfig(t testing.TB) *config.Config {
	t.Setenv("HOME", t.TempDir())

	c, err := config.Load("")
	require.NoError(t, err)

	return c
}
