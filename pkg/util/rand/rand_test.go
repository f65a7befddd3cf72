package rand_test

import (
	"testing"

	"github.com/nspcc-dev/neofs-trunk/pkg/util/rand"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := rand.New()

	seen := make(map[uint64]struct{})
	for range 100 {
		seen[r.Uint64()] = struct{}{}
	}
	require.Greater(t, len(seen), 90)

	r.Seed(1) // no-op
	require.NotEqual(t, r.Int63(), r.Int63())

	for range 100 {
		v := r.Intn(10)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 10)
	}
}
