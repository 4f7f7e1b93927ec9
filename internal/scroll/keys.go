package scroll

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// DefaultItemKey is the field used for item keys when none is configured
const DefaultItemKey = "id"

// Keyer lets a data type provide its own logical key
type Keyer interface {
	ScrollKey() string
}

// KeyFor derives the logical key of value. A Keyer wins; otherwise the
// configured field of a struct or map is used. Values without that field fall
// back to pointer identity for pointers and to their position in the data
// source for everything else.
func KeyFor(value any, field string, index int) string {
	if k, ok := value.(Keyer); ok {
		return k.ScrollKey()
	}
	if field != "" {
		if v, ok := lookupField(reflect.ValueOf(value), field); ok {
			return stringify(v)
		}
	}
	rv := reflect.ValueOf(value)
	if rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return fmt.Sprintf("%p", value)
	}
	return "#" + strconv.Itoa(index)
}

func lookupField(v reflect.Value, field string) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		mv := v.MapIndex(reflect.ValueOf(field).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return reflect.Value{}, false
		}
		return unwrap(mv)
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			if strings.EqualFold(sf.Name, field) || tagName(sf, "json") == field || tagName(sf, "toml") == field {
				return unwrap(v.Field(i))
			}
		}
	}
	return reflect.Value{}, false
}

func tagName(sf reflect.StructField, key string) string {
	name, _, _ := strings.Cut(sf.Tag.Get(key), ",")
	return name
}

func unwrap(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

func stringify(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	}
	if v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprint(v.Interface())
	}
	return v.String()
}
