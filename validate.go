package typedstruct

import (
	"math"
	"reflect"

	"github.com/reoring/typedstruct/tree"
)

// Symbol is the value type of Sym() fields.
type Symbol = tree.Symbol

// ZeroValue returns the canonical default for a descriptor: nil when nilable;
// otherwise int64(0), "", 0.0, false, Symbol(""), nil for Any, a fresh zero
// record for struct references and an empty sequence for sequences. A struct
// reference that has not been resolved by Registry.Seal yields nil.
func ZeroValue(d Descriptor, nilable bool) any {
	if nilable {
		return nil
	}
	switch d.kind {
	case KindInt:
		return int64(0)
	case KindString:
		return ""
	case KindFloat:
		return 0.0
	case KindBool:
		return false
	case KindSymbol:
		return Symbol("")
	case KindStruct:
		if d.schema == nil {
			return nil
		}
		return newZeroRecord(d.schema)
	case KindSequence:
		return []any{}
	}
	return nil
}

// TypeCorrect reports whether v is acceptable for a field with descriptor d
// and the given nilability. There is no coercion: a numeric string is not an
// Int and 0/1 are not Bool. Sequence elements are checked as non-nilable
// regardless of the field's own nilability.
func TypeCorrect(d Descriptor, v any, nilable bool) bool {
	if isNil(v) {
		return nilable || d.kind == KindAny
	}
	switch d.kind {
	case KindInt:
		_, ok := asInt64(v)
		return ok
	case KindString:
		_, ok := v.(string)
		return ok
	case KindFloat:
		_, ok := asFloat64(v)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindSymbol:
		_, ok := v.(Symbol)
		return ok
	case KindAny:
		_, err := tree.NormalizeFunc(v, recordExt)
		return err == nil
	case KindStruct:
		r, ok := v.(*Record)
		if !ok {
			return false
		}
		if d.schema != nil {
			return r.schema == d.schema
		}
		return r.schema.name == d.ref
	case KindSequence:
		elems, ok := seqElems(v)
		if !ok {
			return false
		}
		for _, e := range elems {
			if !TypeCorrect(*d.elem, e, false) {
				return false
			}
		}
		return true
	}
	return false
}

// canonical converts an accepted value into its stored form: int64, float64,
// fresh []any containers and normalized Any trees. It must only be called
// after TypeCorrect succeeded.
func canonical(d Descriptor, v any) any {
	if isNil(v) {
		return nil
	}
	switch d.kind {
	case KindInt:
		n, _ := asInt64(v)
		return n
	case KindFloat:
		f, _ := asFloat64(v)
		return f
	case KindAny:
		out, _ := tree.NormalizeFunc(v, recordExt)
		return out
	case KindSequence:
		elems, _ := seqElems(v)
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = canonical(*d.elem, e)
		}
		return out
	}
	return v
}

// recordExt admits records into Any values.
func recordExt(v any) (any, bool, error) {
	if r, ok := v.(*Record); ok && r != nil {
		return r, true, nil
	}
	return nil, false, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	if r, ok := v.(*Record); ok && r == nil {
		return true
	}
	if m, ok := v.(*tree.Map); ok && m == nil {
		return true
	}
	return false
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	}
	return 0, false
}

// seqElems views any Go slice as []any. Strings and byte arrays are not
// sequences.
func seqElems(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []*Record:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = r
		}
		return out, true
	case string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isEmpty reports whether v is the "empty" value for omitempty purposes.
// Struct fields are never empty.
func isEmpty(f Field, v any) bool {
	if f.Nilable {
		return isNil(v)
	}
	switch f.Type.kind {
	case KindStruct:
		return false
	case KindSequence:
		elems, ok := seqElems(v)
		return ok && len(elems) == 0
	case KindAny:
		return isNil(v)
	}
	return v == ZeroValue(f.Type, false)
}
