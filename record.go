package typedstruct

import (
	"fmt"

	"github.com/reoring/typedstruct/tree"
)

// Record is a live value conforming to a schema. Every declared field always
// holds a value accepted by its descriptor; all writes go through the
// validator. Records are not safe for concurrent mutation.
type Record struct {
	schema *Schema
	values []any
}

// New constructs a record. For every field in declaration order it takes
// init[name] when present and the field's zero value otherwise; the first
// rejected value stops construction with a *TypeMismatchError. Keys of init
// that name no field are ignored.
func (s *Schema) New(init map[string]any) (*Record, error) {
	if err := s.ready(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, s.name)
	}
	r := &Record{schema: s, values: make([]any, len(s.fields))}
	for i, f := range s.fields {
		v, ok := init[f.Name]
		if !ok {
			r.values[i] = ZeroValue(f.Type, f.Nilable)
			continue
		}
		if err := r.setAt(i, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew is like New but panics on error.
func (s *Schema) MustNew(init map[string]any) *Record {
	r, err := s.New(init)
	if err != nil {
		panic(err)
	}
	return r
}

// Zero returns a record holding every field's zero value. It panics when the
// registry is not sealed.
func (s *Schema) Zero() *Record { return s.MustNew(nil) }

func newZeroRecord(s *Schema) *Record {
	r := &Record{schema: s, values: make([]any, len(s.fields))}
	for i, f := range s.fields {
		r.values[i] = ZeroValue(f.Type, f.Nilable)
	}
	return r
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema { return r.schema }

// Get returns the current value of a field. Sequences and Any trees are
// returned as copies; nested records are returned by reference.
func (r *Record) Get(name string) (any, error) {
	i, ok := r.schema.index[name]
	if !ok {
		return nil, &UnknownFieldError{Schema: r.schema.name, Field: name}
	}
	return copyContainers(r.values[i]), nil
}

// MustGet is like Get but panics on unknown fields.
func (r *Record) MustGet(name string) any {
	v, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set assigns a field. It fails with *UnknownFieldError, *TypeMismatchError
// or *CycleError and leaves the record untouched on failure.
func (r *Record) Set(name string, v any) error {
	i, ok := r.schema.index[name]
	if !ok {
		return &UnknownFieldError{Schema: r.schema.name, Field: name}
	}
	return r.setAt(i, v)
}

// TrySet is the non-failing form of Set. It reports whether the value was
// stored.
func (r *Record) TrySet(name string, v any) bool {
	i, ok := r.schema.index[name]
	if !ok {
		return false
	}
	return r.setAt(i, v) == nil
}

// setAt validates and stores a value. A value from which r itself can be
// reached is refused, so record graphs stay acyclic.
func (r *Record) setAt(i int, v any) error {
	f := r.schema.fields[i]
	if !TypeCorrect(f.Type, v, f.Nilable) {
		return r.mismatch(f, v)
	}
	cv := canonical(f.Type, v)
	if reaches(cv, r, map[*Record]struct{}{}) {
		return &CycleError{Schema: r.schema.name, Field: f.Name, Path: pointerAt("", f.Name)}
	}
	r.values[i] = cv
	return nil
}

// reaches reports whether target is v or is nested anywhere below it.
func reaches(v any, target *Record, seen map[*Record]struct{}) bool {
	switch t := v.(type) {
	case *Record:
		if t == nil {
			return false
		}
		if t == target {
			return true
		}
		if _, ok := seen[t]; ok {
			return false
		}
		seen[t] = struct{}{}
		for _, e := range t.values {
			if reaches(e, target, seen) {
				return true
			}
		}
	case []any:
		for _, e := range t {
			if reaches(e, target, seen) {
				return true
			}
		}
	case *tree.Map:
		found := false
		t.Range(func(_ string, e any) bool {
			found = reaches(e, target, seen)
			return !found
		})
		return found
	}
	return false
}

func (r *Record) mismatch(f Field, v any) error {
	return &TypeMismatchError{
		Schema:   r.schema.name,
		Field:    f.Name,
		Path:     pointerAt("", f.Name),
		Expected: f.Type,
		Nilable:  f.Nilable,
		Actual:   v,
	}
}

// Int returns an Int field's value.
func (r *Record) Int(name string) (int64, error) { return typedGet[int64](r, name) }

// Float returns a Float field's value.
func (r *Record) Float(name string) (float64, error) { return typedGet[float64](r, name) }

// Str returns a String field's value.
func (r *Record) Str(name string) (string, error) { return typedGet[string](r, name) }

// Bool returns a Bool field's value.
func (r *Record) Bool(name string) (bool, error) { return typedGet[bool](r, name) }

// Symbol returns a Symbol field's value.
func (r *Record) Symbol(name string) (Symbol, error) { return typedGet[Symbol](r, name) }

// Record returns a struct field's value; nil for an absent nilable field.
func (r *Record) Record(name string) (*Record, error) {
	v, err := r.Get(name)
	if err != nil || v == nil {
		return nil, err
	}
	rec, ok := v.(*Record)
	if !ok {
		f, _ := r.schema.Field(name)
		return nil, &TypeMismatchError{Schema: r.schema.name, Field: name, Path: pointerAt("", name), Expected: f.Type, Nilable: f.Nilable, Actual: v}
	}
	return rec, nil
}

// Seq returns a sequence field's elements (a copy).
func (r *Record) Seq(name string) ([]any, error) {
	v, err := r.Get(name)
	if err != nil || v == nil {
		return nil, err
	}
	elems, ok := v.([]any)
	if !ok {
		f, _ := r.schema.Field(name)
		return nil, &TypeMismatchError{Schema: r.schema.name, Field: name, Path: pointerAt("", name), Expected: f.Type, Nilable: f.Nilable, Actual: v}
	}
	return elems, nil
}

// typedGet reads a primitive field. A nil value of a nilable field yields the
// Go zero value of T without error.
func typedGet[T any](r *Record, name string) (T, error) {
	var zero T
	v, err := r.Get(name)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		f, _ := r.schema.Field(name)
		return zero, &TypeMismatchError{Schema: r.schema.name, Field: name, Path: pointerAt("", name), Expected: f.Type, Nilable: f.Nilable, Actual: v}
	}
	return t, nil
}

// Equal reports whether two records have the same schema and deeply equal
// field values.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.schema != o.schema {
		return false
	}
	for i := range r.values {
		if !valuesEqual(r.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

func (r *Record) String() string {
	m, err := Marshal(r)
	if err != nil {
		return r.schema.name + "{?}"
	}
	return fmt.Sprintf("%s%v", r.schema.name, tree.ToGo(m))
}

func valuesEqual(a, b any) bool {
	return tree.EqualFunc(a, b, func(a, b any) (bool, bool) {
		ra, okA := a.(*Record)
		rb, okB := b.(*Record)
		if !okA && !okB {
			return false, false
		}
		if !okA || !okB {
			return false, true
		}
		return ra.Equal(rb), true
	})
}

func copyContainers(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyContainers(e)
		}
		return out
	case *tree.Map:
		if t == nil {
			return nil
		}
		out := tree.NewMap(t.Len())
		t.Range(func(k string, e any) bool {
			out.Set(k, copyContainers(e))
			return true
		})
		return out
	}
	return v
}
