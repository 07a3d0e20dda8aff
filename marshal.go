package typedstruct

import (
	"errors"
	"fmt"

	"github.com/reoring/typedstruct/tree"
)

// ErrNilRecord is returned when marshaling a nil record.
var ErrNilRecord = errors.New("typedstruct: nil record")

// Marshal converts a record into a generic tree. Keys follow schema
// declaration order; skipped fields are dropped, renamed fields use their
// wire key and omitempty fields holding their empty value are left out.
// Nested records and sequences are converted recursively.
func Marshal(r *Record) (*tree.Map, error) {
	if r == nil {
		return nil, ErrNilRecord
	}
	out := tree.NewMap(len(r.schema.fields))
	for i, f := range r.schema.fields {
		if f.Tag.Skip {
			continue
		}
		v := r.values[i]
		if f.Tag.OmitEmpty && isEmpty(f, v) {
			continue
		}
		tv, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.schema.name, f.Name, err)
		}
		out.Set(f.Tag.Key(f.Name), tv)
	}
	return out, nil
}

// MarshalValue converts a record, a list of records (as []*Record or []any)
// or a plain tree value into a generic tree value.
func MarshalValue(v any) (any, error) {
	if rs, ok := v.([]*Record); ok {
		out := make([]any, len(rs))
		for i, r := range rs {
			m, err := Marshal(r)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	}
	nv, err := tree.NormalizeFunc(v, recordExt)
	if err != nil {
		return nil, err
	}
	return marshalValue(nv)
}

// marshalValue converts an already validated value. Scalars pass through.
func marshalValue(v any) (any, error) {
	switch t := v.(type) {
	case *Record:
		if t == nil {
			return nil, nil
		}
		return Marshal(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ev, err := marshalValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case *tree.Map:
		if t == nil {
			return nil, nil
		}
		out := tree.NewMap(t.Len())
		var err error
		t.Range(func(k string, e any) bool {
			var ev any
			ev, err = marshalValue(e)
			if err != nil {
				return false
			}
			out.Set(k, ev)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return v, nil
}
