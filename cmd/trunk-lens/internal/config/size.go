package config

import (
	"fmt"
	"math"
	"math/bits"
	"reflect"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// Size is a size in bytes. Configuration values may use k, m, g and t
// suffixes with an optional trailing b, e.g. 64M or 512kb.
type Size uint64

// Uint32 returns the size as uint32 or an error if it does not fit.
func (s Size) Uint32() (uint32, error) {
	if s > math.MaxUint32 {
		return 0, fmt.Errorf("size %d exceeds %d", s, uint64(math.MaxUint32))
	}
	return uint32(s), nil
}

// SizeHook returns a mapstructure decode hook func that converts a string
// or a number to a Size.
func SizeHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeFor[Size]() {
			return data, nil
		}

		return parseSize(cast.ToString(data))
	}
}

var multipliers = map[rune]uint64{
	'k': 1 << 10,
	'm': 1 << 20,
	'g': 1 << 30,
	't': 1 << 40,
}

func parseSize(s string) (Size, error) {
	str := strings.TrimSpace(s)
	mul := uint64(1)

	if n := len(str); n > 1 && (str[n-1] == 'b' || str[n-1] == 'B') {
		str = str[:n-1]
	}

	if n := len(str); n > 0 {
		if m, ok := multipliers[unicode.ToLower(rune(str[n-1]))]; ok {
			mul = m
			str = strings.TrimSpace(str[:n-1])
		}
	}

	v, err := cast.ToUint64E(str)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	hi, lo := bits.Mul64(v, mul)
	if hi != 0 {
		return 0, fmt.Errorf("size %q overflows", s)
	}

	return Size(lo), nil
}
