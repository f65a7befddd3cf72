package storagelog_test

import (
	"testing"

	"github.com/nspcc-dev/neofs-trunk/internal/testutil"
	storagelog "github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/internal/log"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"go.uber.org/zap"
)

func TestWrite(t *testing.T) {
	b := trunk.FullInfo{File: trunk.FileInfo{ID: 1, Offset: 64, Size: 128}}

	l, lb := testutil.NewBufferedLogger(t, zap.DebugLevel)

	storagelog.Write(l, storagelog.OpField(storagelog.OpAlloc), storagelog.BlockField(b), storagelog.SizeField(100))

	lb.AssertSingle(testutil.LogEntry{
		Level:   zap.DebugLevel,
		Message: "trunk space operation",
		Fields: map[string]any{
			"op":        "ALLOC",
			"block":     b.String(),
			"requested": uint32(100),
		},
	})

	l, lb = testutil.NewBufferedLogger(t, zap.InfoLevel)
	storagelog.Write(l, storagelog.OpField(storagelog.OpFree))
	lb.AssertEmpty()
}
