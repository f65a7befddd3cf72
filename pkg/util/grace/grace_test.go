package grace_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/nspcc-dev/neofs-trunk/internal/testutil"
	"github.com/nspcc-dev/neofs-trunk/pkg/util/grace"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewGracefulContext(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		ctx, cancel := grace.NewGracefulContext(context.Background(), zap.NewNop())
		cancel()

		<-ctx.Done()
		require.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("signal", func(t *testing.T) {
		l, lb := testutil.NewBufferedLogger(t, zap.InfoLevel)

		ctx, cancel := grace.NewGracefulContext(context.Background(), l)
		defer cancel()

		require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))

		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
			require.FailNow(t, "context is not cancelled")
		}

		lb.AssertMessage(zap.InfoLevel, "received signal, stopping")
	})
}
