package snapshot

import (
	"time"

	"go.uber.org/zap"
)

type cfg struct {
	log      *zap.Logger
	timeout  time.Duration
	noSync   bool
	readOnly bool
}

// Option allows setting optional parameters of the Storage.
type Option func(*cfg)

func defaultCfg() *cfg {
	return &cfg{
		log:     zap.L(),
		timeout: time.Second,
	}
}

// WithLogger returns an option to specify logger.
func WithLogger(v *zap.Logger) Option {
	return func(c *cfg) {
		c.log = v
	}
}

// WithTimeout returns option to specify database file lock timeout.
func WithTimeout(v time.Duration) Option {
	return func(c *cfg) {
		c.timeout = v
	}
}

// WithNoSync returns option to skip fsync after each commit.
func WithNoSync(v bool) Option {
	return func(c *cfg) {
		c.noSync = v
	}
}

// WithReadOnly returns option to open the database in read-only mode.
// Save fails on such Storage.
func WithReadOnly(v bool) Option {
	return func(c *cfg) {
		c.readOnly = v
	}
}
