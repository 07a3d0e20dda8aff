package tree

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Symbol is an interned-name scalar. Wire formats without a symbol type carry
// it as a string.
type Symbol string

// ErrUnsupportedValue is wrapped by Normalize when a Go value has no place in
// the tree variant.
var ErrUnsupportedValue = errors.New("tree: unsupported value")

// Ext lets an owning package admit extra node types into Normalize. It returns
// handled=false to defer to the built-in rules.
type Ext func(v any) (out any, handled bool, err error)

// Normalize converts v into the closed tree variant: nil, bool, int64,
// float64, string, Symbol, []any and *Map. Containers are always copied.
// Plain Go maps with string keys become a *Map with sorted keys.
func Normalize(v any) (any, error) { return NormalizeFunc(v, nil) }

// NormalizeFunc is Normalize with an extension hook consulted before the
// built-in rules at every level.
func NormalizeFunc(v any, ext Ext) (any, error) {
	if ext != nil {
		out, handled, err := ext(v)
		if handled || err != nil {
			return out, err
		}
	}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool, string, Symbol, int64, float64:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, t)
		}
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, t)
		}
		return int64(t), nil
	case float32:
		return float64(t), nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ne, err := NormalizeFunc(e, ext)
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	case *Map:
		if t == nil {
			return nil, nil
		}
		out := NewMap(t.Len())
		var err error
		t.Range(func(k string, e any) bool {
			var ne any
			ne, err = NormalizeFunc(e, ext)
			if err != nil {
				return false
			}
			out.Set(k, ne)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewMap(len(keys))
		for _, k := range keys {
			ne, err := NormalizeFunc(t[k], ext)
			if err != nil {
				return nil, err
			}
			out.Set(k, ne)
		}
		return out, nil
	}
	return normalizeReflect(v, ext)
}

// normalizeReflect handles typed slices ([]int, []string, [][]int, ...) and
// string-keyed maps of any element type.
func normalizeReflect(v any, ext Ext) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ne, err := NormalizeFunc(rv.Index(i).Interface(), ext)
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		out := NewMap(len(keys))
		for _, k := range keys {
			ne, err := NormalizeFunc(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface(), ext)
			if err != nil {
				return nil, err
			}
			out.Set(k, ne)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// IsValue reports whether v already belongs to the tree variant without any
// conversion.
func IsValue(v any) bool {
	switch t := v.(type) {
	case nil, bool, int64, float64, string, Symbol:
		return true
	case []any:
		for _, e := range t {
			if !IsValue(e) {
				return false
			}
		}
		return true
	case *Map:
		ok := true
		t.Range(func(_ string, e any) bool {
			ok = IsValue(e)
			return ok
		})
		return ok
	}
	return false
}

// ExtEqual compares extension node types. It returns handled=false when
// neither side is an extension type.
type ExtEqual func(a, b any) (equal, handled bool)

// Equal reports deep equality of two tree values. Map comparison ignores key
// order; sequence comparison does not. int64 and float64 never compare equal.
func Equal(a, b any) bool { return EqualFunc(a, b, nil) }

// EqualFunc is Equal with an extension comparator.
func EqualFunc(a, b any, ext ExtEqual) bool {
	if ext != nil {
		if eq, handled := ext(a, b); handled {
			return eq
		}
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !EqualFunc(x[i], y[i], ext) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok {
			return false
		}
		if x == nil || y == nil {
			return x == y
		}
		if x.Len() != y.Len() {
			return false
		}
		eq := true
		x.Range(func(k string, xv any) bool {
			yv, ok := y.Get(k)
			eq = ok && EqualFunc(xv, yv, ext)
			return eq
		})
		return eq
	case bool, int64, float64, string, Symbol:
		return a == b
	}
	return false
}

// ToGo converts a tree value into plain Go containers: *Map becomes
// map[string]any and Symbol becomes string.
func ToGo(v any) any {
	switch t := v.(type) {
	case *Map:
		if t == nil {
			return nil
		}
		out := make(map[string]any, t.Len())
		t.Range(func(k string, e any) bool {
			out[k] = ToGo(e)
			return true
		})
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToGo(e)
		}
		return out
	case Symbol:
		return string(t)
	}
	return v
}
