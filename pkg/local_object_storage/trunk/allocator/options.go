package allocator

import (
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/registry"
	"go.uber.org/zap"
)

const (
	// DefaultTrunkFileSize is the size of a newly created trunk file.
	DefaultTrunkFileSize = 64 << 20
	// DefaultSlotMinSize is the smallest block worth tracking.
	DefaultSlotMinSize = 256
	// DefaultSlotMaxSize is the largest file stored inside trunk files.
	DefaultSlotMaxSize = 16 << 20
	// DefaultSubdirCount is the number of data sub directories on each
	// of the two levels.
	DefaultSubdirCount = 256
)

// Allocation results reported to Metrics.
const (
	ResultReused  = "reused"
	ResultCreated = "created"
	ResultFailed  = "failed"
)

// Metrics collects the allocator state.
type Metrics interface {
	SetFreeSpace(storePathIndex int, size uint64)
	IncAllocations(result string)
	IncTrunkFiles()
}

type noopMetrics struct{}

func (noopMetrics) SetFreeSpace(int, uint64) {}
func (noopMetrics) IncAllocations(string)    {}
func (noopMetrics) IncTrunkFiles()           {}

// TrunkCreator prepares a new trunk file of the given size. It must return
// an error wrapping trunk.ErrConflict if the file already exists, the
// allocator then tries the next id.
type TrunkCreator func(id trunk.Identity, size uint32) error

// Option is an Allocator's constructor option.
type Option func(*cfg)

type cfg struct {
	log     *zap.Logger
	metrics Metrics

	storePaths    int
	trunkFileSize uint32
	slotMinSize   uint32
	slotMaxSize   uint32
	subdirCount   uint32
	maxAttempts   int

	create TrunkCreator

	registryOpts []registry.Option
}

func defaultCfg() *cfg {
	return &cfg{
		log:           zap.L(),
		metrics:       noopMetrics{},
		storePaths:    1,
		trunkFileSize: DefaultTrunkFileSize,
		slotMinSize:   DefaultSlotMinSize,
		slotMaxSize:   DefaultSlotMaxSize,
		subdirCount:   DefaultSubdirCount,
		maxAttempts:   1000,
		create:        func(trunk.Identity, uint32) error { return nil },
	}
}

// WithLogger returns option to specify Allocator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}

// WithMetrics returns option to specify Allocator's metrics. If m also
// implements registry.Metrics, it is passed to the block registry.
func WithMetrics(m Metrics) Option {
	return func(c *cfg) {
		c.metrics = m
		if rm, ok := m.(registry.Metrics); ok {
			c.registryOpts = append(c.registryOpts, registry.WithMetrics(rm))
		}
	}
}

// WithStorePathCount returns option to specify the number of store paths.
func WithStorePathCount(n int) Option {
	return func(c *cfg) {
		if n > 0 {
			c.storePaths = n
		}
	}
}

// WithTrunkFileSize returns option to specify the size of new trunk files.
func WithTrunkFileSize(sz uint32) Option {
	return func(c *cfg) {
		c.trunkFileSize = sz
	}
}

// WithSlotSizes returns option to specify the smallest tracked block and
// the largest file allowed in trunk files.
func WithSlotSizes(minSize, maxSize uint32) Option {
	return func(c *cfg) {
		c.slotMinSize = minSize
		c.slotMaxSize = maxSize
	}
}

// WithSubdirCount returns option to specify the number of data sub
// directories per level. Values outside [1, 256] are ignored.
func WithSubdirCount(n int) Option {
	return func(c *cfg) {
		if n > 0 && n <= 256 {
			c.subdirCount = uint32(n)
		}
	}
}

// WithTrunkCreator returns option to specify the function preparing new
// trunk files.
func WithTrunkCreator(f TrunkCreator) Option {
	return func(c *cfg) {
		if f != nil {
			c.create = f
		}
	}
}

// WithRegistryOptions returns option to pass additional options to the
// block registry.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(c *cfg) {
		c.registryOpts = append(c.registryOpts, opts...)
	}
}
