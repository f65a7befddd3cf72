package configvalidator

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnknownField returns when an unknown field appears in the config.
var ErrUnknownField = errors.New("unknown field")

// CheckForUnknownFields checks that every key of the config map has
// a corresponding field in the config struct. Fields are matched by the
// `mapstructure` tag or by name if there is no tag. Nested maps are
// checked against nested structs, map-typed fields accept any keys.
func CheckForUnknownFields(configMap map[string]any, config any) error {
	return check(configMap, reflect.TypeOf(config), "")
}

func check(configMap map[string]any, t reflect.Type, path string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil
	}

	fields := structFields(t)

	for key, val := range configMap {
		fullPath := key
		if path != "" {
			fullPath = path + "." + key
		}

		ft, ok := fields[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, fullPath)
		}

		for ft.Kind() == reflect.Pointer || ft.Kind() == reflect.Slice {
			ft = ft.Elem()
		}

		switch v := val.(type) {
		case map[string]any:
			if ft.Kind() == reflect.Map {
				continue
			}
			if ft.Kind() != reflect.Struct {
				return fmt.Errorf("%w: %s is not a section", ErrUnknownField, fullPath)
			}
			if err := check(v, ft, fullPath); err != nil {
				return err
			}
		case []any:
			for i := range v {
				if m, ok := v[i].(map[string]any); ok {
					if err := check(m, ft, fmt.Sprintf("%s[%d]", fullPath, i)); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}

func structFields(t reflect.Type) map[string]reflect.Type {
	res := make(map[string]reflect.Type, t.NumField())

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name := f.Name
		if tag := f.Tag.Get("mapstructure"); tag != "" {
			name = tag
		}

		res[name] = f.Type
	}

	return res
}
