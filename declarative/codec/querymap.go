package codec

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
)

// QueryMapEncoder flattens query-map arguments into query parameters.
// Maps contribute their entries directly; structs contribute their
// exported fields, named by the `url` tag (falling back to the `json`
// tag, then the lowercased field name). Zero values and empty strings are
// skipped, times render as RFC3339 and slices fan out into repeated
// values.
type QueryMapEncoder struct{}

// Ensure QueryMapEncoder implements the interface
var _ interfaces.QueryMapEncoder = (*QueryMapEncoder)(nil)

var timeType = reflect.TypeOf(time.Time{})

// Encode implements interfaces.QueryMapEncoder.
func (QueryMapEncoder) Encode(value any) (map[string][]string, error) {
	out := make(map[string][]string)
	if value == nil {
		return out, nil
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return out, nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("query map key type must be string, got %v", v.Type().Key())
		}
		for _, key := range v.MapKeys() {
			appendQueryValue(out, key.String(), v.MapIndex(key))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Type().Field(i)
			if f.PkgPath != "" {
				continue
			}
			name := queryFieldName(f)
			if name == "-" {
				continue
			}
			appendQueryValue(out, name, v.Field(i))
		}
	default:
		return nil, fmt.Errorf("query map value must be a map or struct, got %v", v.Kind())
	}
	return out, nil
}

func queryFieldName(f reflect.StructField) string {
	for _, tag := range []string{"url", "json"} {
		if v, ok := f.Tag.Lookup(tag); ok {
			name, _, _ := strings.Cut(v, ",")
			if name != "" {
				return name
			}
		}
	}
	return strings.ToLower(f.Name)
}

func appendQueryValue(out map[string][]string, name string, v reflect.Value) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		if v.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < v.Len(); i++ {
				appendQueryValue(out, name, v.Index(i))
			}
			return
		}
	}
	if !v.IsValid() || v.IsZero() {
		return
	}
	s := stringifyQueryValue(v)
	if s == "" {
		return
	}
	out[name] = append(out[name], s)
}

func stringifyQueryValue(v reflect.Value) string {
	if v.Type() == timeType {
		return v.Interface().(time.Time).Format(time.RFC3339)
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
		return string(v.Bytes())
	}
	return fmt.Sprintf("%v", v.Interface())
}
