package registry

import "go.uber.org/zap"

// DefaultInitialCapacity is the number of blocks a trunk file group is
// allocated for when its first block is inserted.
const DefaultInitialCapacity = 32

// Metrics collects the registry state.
type Metrics interface {
	SetGroupCount(int)
	SetBlockCount(int)
	IncConflicts()
}

type noopMetrics struct{}

func (noopMetrics) SetGroupCount(int) {}
func (noopMetrics) SetBlockCount(int) {}
func (noopMetrics) IncConflicts()     {}

// Option is a Registry's constructor option.
type Option func(*cfg)

type cfg struct {
	log     *zap.Logger
	metrics Metrics

	initCap           int
	maxGroups         int
	maxBlocksPerGroup int
}

func defaultCfg() *cfg {
	return &cfg{
		log:     zap.L(),
		metrics: noopMetrics{},
		initCap: DefaultInitialCapacity,
	}
}

// WithLogger returns option to specify Registry's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}

// WithMetrics returns option to specify Registry's metrics.
func WithMetrics(m Metrics) Option {
	return func(c *cfg) {
		c.metrics = m
	}
}

// WithInitialCapacity returns option to specify the initial block capacity
// of a trunk file group. Non-positive values are ignored.
func WithInitialCapacity(n int) Option {
	return func(c *cfg) {
		if n > 0 {
			c.initCap = n
		}
	}
}

// WithMaxGroups returns option to limit the number of tracked trunk files.
// Zero means no limit.
func WithMaxGroups(n int) Option {
	return func(c *cfg) {
		c.maxGroups = n
	}
}

// WithMaxBlocksPerGroup returns option to limit the number of tracked
// blocks of a single trunk file. Zero means no limit.
func WithMaxBlocksPerGroup(n int) Option {
	return func(c *cfg) {
		c.maxBlocksPerGroup = n
	}
}
