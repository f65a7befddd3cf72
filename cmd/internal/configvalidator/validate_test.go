package configvalidator_test

import (
	"testing"

	"github.com/nspcc-dev/neofs-trunk/cmd/internal/configvalidator"
	"github.com/stretchr/testify/require"
)

type section struct {
	Level string `mapstructure:"level"`
}

type item struct {
	Path string `mapstructure:"path"`
}

type config struct {
	Logger section           `mapstructure:"logger"`
	Paths  []string          `mapstructure:"store_paths"`
	Items  []item            `mapstructure:"items"`
	Labels map[string]string `mapstructure:"labels"`
	Opt    *section          `mapstructure:"opt"`
	Plain  int
}

func TestCheckForUnknownFields(t *testing.T) {
	for _, tc := range []struct {
		name string
		m    map[string]any
		err  bool
	}{
		{name: "empty", m: map[string]any{}},
		{name: "valid", m: map[string]any{
			"logger":      map[string]any{"level": "info"},
			"store_paths": []any{"/a", "/b"},
			"items":       []any{map[string]any{"path": "/c"}},
			"labels":      map[string]any{"any": "value"},
			"opt":         map[string]any{"level": "debug"},
			"Plain":       1,
		}},
		{name: "unknown root", m: map[string]any{"loger": map[string]any{}}, err: true},
		{name: "unknown nested", m: map[string]any{"logger": map[string]any{"lvl": "info"}}, err: true},
		{name: "unknown in slice", m: map[string]any{"items": []any{map[string]any{"name": "x"}}}, err: true},
		{name: "value as section", m: map[string]any{"Plain": map[string]any{"x": 1}}, err: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := configvalidator.CheckForUnknownFields(tc.m, config{})
			if tc.err {
				require.ErrorIs(t, err, configvalidator.ErrUnknownField)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
