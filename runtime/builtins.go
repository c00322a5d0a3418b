package runtime

import (
	"reflect"
	"strconv"
	"strings"
)

// NumberToString formats f in the shortest form that round-trips, without
// an exponent or trailing zeros: 1 -> "1", 2.5 -> "2.5".
func NumberToString(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Boolean returns a when cond holds and b otherwise.
func Boolean[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// Lookup reads key from table, a map with string keys or a struct (matched
// case-insensitively against field names, pointers are followed). It returns
// fallback when the key is absent or holds a value of another type.
func Lookup[T any](table any, key string, fallback T) T {
	v := reflect.ValueOf(table)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return fallback
		}
		v = v.Elem()
	}
	var found reflect.Value
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fallback
		}
		found = v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
	case reflect.Struct:
		found = v.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, key) })
	default:
		return fallback
	}
	if !found.IsValid() || !found.CanInterface() {
		return fallback
	}
	if out, ok := found.Interface().(T); ok {
		return out
	}
	return fallback
}
