package typedstruct

import (
	"strconv"

	"github.com/reoring/typedstruct/tree"
)

// decodeState carries the options and the field being decoded so element
// errors can name their owner.
type decodeState struct {
	opt    UnmarshalOpt
	schema string
	field  string
}

// Unmarshal builds a record of schema s from a generic tree node (a
// *tree.Map or a plain map[string]any). Skipped fields ignore incoming keys,
// missing keys take zero values, nested records and sequences of records are
// decoded recursively and the result is validated by Schema.New.
func Unmarshal(node any, s *Schema, opts ...UnmarshalOpt) (*Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	st := decodeState{opt: lastOpt(opts), schema: s.name}
	m, ok := asMap(node)
	if !ok {
		return nil, &TypeMismatchError{Schema: s.name, Path: "/", Expected: RefTo(s), Actual: node}
	}
	return st.record(m, s, "")
}

// UnmarshalAs decodes node against an arbitrary descriptor. It accepts bare
// top-level sequences: Seq(RefTo(s)) yields []any of *Record. Struct
// references must be resolved (built with RefTo or passed through
// Registry.Resolve).
func UnmarshalAs(node any, d Descriptor, opts ...UnmarshalOpt) (any, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if err := checkResolved(d); err != nil {
		return nil, err
	}
	st := decodeState{opt: lastOpt(opts)}
	v, err := st.value(d, node, "")
	if err != nil {
		return nil, err
	}
	if !TypeCorrect(d, v, false) {
		return nil, &TypeMismatchError{Path: "/", Expected: d, Actual: v}
	}
	return canonical(d, v), nil
}

// UnmarshalList decodes a bare sequence of s records.
func UnmarshalList(node any, s *Schema, opts ...UnmarshalOpt) ([]*Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	v, err := UnmarshalAs(node, Seq(RefTo(s)), opts...)
	if err != nil {
		return nil, err
	}
	elems := v.([]any)
	out := make([]*Record, len(elems))
	for i, e := range elems {
		out[i] = e.(*Record)
	}
	return out, nil
}

// Resolve binds the struct references inside d to this registry's schemas.
func (r *Registry) Resolve(d Descriptor) (Descriptor, error) {
	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return r.resolve(d)
}

func (st decodeState) record(m *tree.Map, s *Schema, path string) (*Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	init := make(map[string]any, len(s.fields))
	var known map[string]struct{}
	if st.opt.Unknown == UnknownReject {
		known = make(map[string]struct{}, len(s.fields))
	}
	inner := st
	inner.schema = s.name
	for _, f := range s.fields {
		key := f.Tag.Key(f.Name)
		if known != nil {
			known[key] = struct{}{}
		}
		if f.Tag.Skip {
			continue
		}
		raw, ok := m.Get(key)
		if !ok {
			continue
		}
		inner.field = f.Name
		v, err := inner.value(f.Type, raw, pointerAt(path, key))
		if err != nil {
			return nil, err
		}
		init[f.Name] = v
	}
	if known != nil {
		for _, k := range m.Keys() {
			if _, ok := known[k]; !ok {
				return nil, &UnknownKeyError{Schema: s.name, Key: k, Path: pointerAt(path, k)}
			}
		}
	}
	rec, err := s.New(init)
	if err != nil {
		if tm, ok := err.(*TypeMismatchError); ok {
			f, _ := s.Field(tm.Field)
			tm.Path = pointerAt(path, f.Tag.Key(f.Name))
		}
		return nil, err
	}
	return rec, nil
}

// value converts a raw tree node for descriptor d. Values that cannot be
// decoded structurally are passed through so that construction reports the
// mismatch.
func (st decodeState) value(d Descriptor, raw any, path string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch d.kind {
	case KindStruct:
		m, ok := asMap(raw)
		if !ok {
			return raw, nil
		}
		return st.record(m, d.schema, path)
	case KindSequence:
		elems, ok := raw.([]any)
		if !ok {
			return raw, nil
		}
		inner := *d.elem
		out := make([]any, len(elems))
		for i, e := range elems {
			ep := pointerAt(path, strconv.Itoa(i))
			ev, err := st.value(inner, e, ep)
			if err != nil {
				return nil, err
			}
			if !TypeCorrect(inner, ev, false) {
				return nil, &TypeMismatchError{Schema: st.schema, Field: st.field, Path: ep, Expected: inner, Actual: ev}
			}
			out[i] = ev
		}
		return out, nil
	case KindSymbol:
		// wire formats carry symbols as strings
		if s, ok := raw.(string); ok {
			return Symbol(s), nil
		}
	}
	return raw, nil
}

func asMap(node any) (*tree.Map, bool) {
	switch t := node.(type) {
	case *tree.Map:
		return t, t != nil
	case map[string]any:
		nv, err := tree.Normalize(t)
		if err != nil {
			return nil, false
		}
		return nv.(*tree.Map), true
	}
	return nil, false
}

func checkResolved(d Descriptor) error {
	switch d.kind {
	case KindStruct:
		if d.schema == nil {
			return &UnsupportedTypeError{Notation: d.String(), Reason: "unresolved schema reference; use RefTo or Registry.Resolve"}
		}
		return d.schema.ready()
	case KindSequence:
		return checkResolved(*d.elem)
	}
	return nil
}
