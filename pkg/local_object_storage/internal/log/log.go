package storagelog

import (
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"go.uber.org/zap"
)

// headMsg is a distinctive part of all messages.
const headMsg = "trunk space operation"

// Trunk space operations.
const (
	OpAlloc   = "ALLOC"
	OpConsume = "CONSUME"
	OpRestore = "RESTORE"
	OpFree    = "FREE"
)

// Write writes message about trunk space operation to logger. Operations
// are frequent, so the message is written at debug level.
func Write(logger *zap.Logger, fields ...zap.Field) {
	logger.Debug(headMsg, fields...)
}

// BlockField returns logger's field for the trunk block.
func BlockField(b trunk.FullInfo) zap.Field {
	return zap.Stringer("block", b)
}

// OpField returns logger's field for operation type.
func OpField(op string) zap.Field {
	return zap.String("op", op)
}

// SizeField returns logger's field for the requested size.
func SizeField(size uint32) zap.Field {
	return zap.Uint32("requested", size)
}
