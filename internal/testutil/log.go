package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// LogEntry is a single [zap.Logger] entry. Fields hold the context of the
// entry including the fields added by [zap.Logger.With], values keep the
// types zap encodes them with (e.g. int64 for [zap.Int]). Entries without
// fields have nil Fields.
type LogEntry struct {
	Level   zapcore.Level
	Message string
	Fields  map[string]any
}

// LogBuffer is an in-memory storage of [zap.Logger] entries.
type LogBuffer struct {
	t    testing.TB
	logs *observer.ObservedLogs
}

// NewBufferedLogger returns logger keeping its entries in memory. Entries
// with severity less than minLevel are dropped.
func NewBufferedLogger(t testing.TB, minLevel zapcore.Level) (*zap.Logger, *LogBuffer) {
	core, logs := observer.New(minLevel)
	return zap.New(core), &LogBuffer{t: t, logs: logs}
}

// AssertEmpty asserts that nothing has been logged.
func (x *LogBuffer) AssertEmpty() {
	require.Zero(x.t, x.logs.Len(), "unexpected log entries: %v", x.Messages())
}

// AssertSingle asserts that e is the only entry.
func (x *LogBuffer) AssertSingle(e LogEntry) {
	x.AssertEqual([]LogEntry{e})
}

// AssertEqual asserts that the log consists of es in the same order.
func (x *LogBuffer) AssertEqual(es []LogEntry) {
	got := x.entries()
	require.Len(x.t, got, len(es))
	for i := range es {
		require.Equal(x.t, es[i], got[i], i)
	}
}

// AssertContains asserts that e has been logged at least once.
func (x *LogBuffer) AssertContains(e LogEntry) {
	require.Contains(x.t, x.entries(), e)
}

// AssertMessage asserts that msg has been logged at lvl at least once
// regardless of the fields.
func (x *LogBuffer) AssertMessage(lvl zapcore.Level, msg string) {
	n := x.logs.FilterMessage(msg).FilterLevelExact(lvl).Len()
	require.Positive(x.t, n, "no %s entry %q in %v", lvl, msg, x.Messages())
}

// Messages returns messages of all entries in order.
func (x *LogBuffer) Messages() []string {
	all := x.logs.All()
	res := make([]string, len(all))
	for i := range all {
		res[i] = all[i].Message
	}
	return res
}

func (x *LogBuffer) entries() []LogEntry {
	all := x.logs.All()
	res := make([]LogEntry, len(all))

	for i := range all {
		res[i] = LogEntry{
			Level:   all[i].Level,
			Message: all[i].Message,
		}
		if fs := all[i].ContextMap(); len(fs) > 0 {
			res[i].Fields = fs
		}
	}

	return res
}
