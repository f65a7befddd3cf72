package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported encodings.
const (
	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// Prm groups NewLogger parameters.
type Prm struct {
	// Level is a minimal severity of the written records. Empty means info.
	Level string

	// Encoding is either EncodingConsole (default) or EncodingJSON.
	Encoding string

	// Timestamp enables record timestamps.
	Timestamp bool

	// OutputPaths are zap sink URLs, stderr if empty.
	OutputPaths []string
}

// NewLogger builds the process logger. Stack traces are attached to the
// fatal records only.
func NewLogger(prm Prm) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	if prm.Level != "" {
		var err error
		if lvl, err = zap.ParseAtomicLevel(strings.ToLower(prm.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	c := zap.NewProductionConfig()
	c.Level = lvl
	c.Sampling = nil

	switch enc := strings.ToLower(prm.Encoding); enc {
	case "", EncodingConsole:
		c.Encoding = EncodingConsole
	case EncodingJSON:
		c.Encoding = EncodingJSON
	default:
		return nil, fmt.Errorf("unsupported log encoding %q", prm.Encoding)
	}

	if prm.Timestamp {
		c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		c.EncoderConfig.TimeKey = ""
	}

	if len(prm.OutputPaths) > 0 {
		c.OutputPaths = prm.OutputPaths
	}

	return c.Build(
		zap.AddStacktrace(zap.NewAtomicLevelAt(zap.FatalLevel)),
	)
}
