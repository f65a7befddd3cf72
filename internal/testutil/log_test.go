package testutil_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nspcc-dev/neofs-trunk/internal/testutil"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBufferedLogger(t *testing.T) {
	id := trunk.Identity{Path: trunk.PathInfo{StorePathIndex: 1, SubPathHigh: 2, SubPathLow: 3}, ID: 4}

	l, b := testutil.NewBufferedLogger(t, zap.DebugLevel)
	b.AssertEmpty()
	require.Empty(t, b.Messages())

	l.Debug("no fields")
	l.Info("with fields",
		zap.Int("int", 1),
		zap.Duration("dur", 123*time.Millisecond),
		zap.Stringer("trunk", id),
		zap.Uint32("offset", 4096),
		zap.Error(errors.New("boom")))
	l.With(zap.String("component", "Test")).Warn("with context")

	noFields := testutil.LogEntry{Level: zap.DebugLevel, Message: "no fields"}
	withFields := testutil.LogEntry{Level: zap.InfoLevel, Message: "with fields", Fields: map[string]any{
		"int":    int64(1),
		"dur":    123 * time.Millisecond,
		"trunk":  "1/02/03/000004",
		"offset": uint32(4096),
		"error":  "boom",
	}}
	withContext := testutil.LogEntry{Level: zap.WarnLevel, Message: "with context", Fields: map[string]any{
		"component": "Test",
	}}

	b.AssertEqual([]testutil.LogEntry{noFields, withFields, withContext})
	b.AssertContains(withFields)
	b.AssertMessage(zap.WarnLevel, "with context")
	require.Equal(t, []string{"no fields", "with fields", "with context"}, b.Messages())

	t.Run("single", func(t *testing.T) {
		l, b := testutil.NewBufferedLogger(t, zap.DebugLevel)

		l.Debug("no fields")
		b.AssertSingle(noFields)
	})

	t.Run("min level", func(t *testing.T) {
		l, b := testutil.NewBufferedLogger(t, zap.WarnLevel)

		l.Info("skipped")
		l.Warn("written")

		require.Equal(t, []string{"written"}, b.Messages())
		b.AssertMessage(zap.WarnLevel, "written")
	})
}
