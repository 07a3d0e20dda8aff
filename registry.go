package typedstruct

import (
	"errors"
	"strings"
)

// ErrRegistrySealed is returned when declaring into a registry after Seal.
var ErrRegistrySealed = errors.New("typedstruct: registry is sealed")

// Registry owns a set of schemas. It is written during the declaration phase
// and becomes read-only once sealed; a sealed registry is safe for
// concurrent use without locking.
type Registry struct {
	schemas map[string]*Schema
	order   []*Schema
	sealed  bool
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[string]*Schema{}}
}

// Declare starts a new schema named name.
func (r *Registry) Declare(name string) *Builder {
	b := &Builder{reg: r, s: &Schema{name: name, reg: r, index: map[string]int{}}}
	switch {
	case r.sealed:
		b.err = ErrRegistrySealed
	case name == "":
		b.err = &UnsupportedTypeError{Reason: "schema name must not be empty"}
	case r.schemas[name] != nil:
		b.err = &DuplicateSchemaError{Schema: name}
	}
	return b
}

// Lookup returns the schema declared under name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Schemas returns the built schemas in declaration order.
func (r *Registry) Schemas() []*Schema {
	out := make([]*Schema, len(r.order))
	copy(out, r.order)
	return out
}

// Sealed reports whether Seal has completed successfully.
func (r *Registry) Sealed() bool { return r.sealed }

// Seal ends the declaration phase. It resolves every struct reference, rejects
// references to undeclared schemas and rejects cycles of non-nilable struct
// fields (their zero value would be infinite). Sealing twice is a no-op.
func (r *Registry) Seal() error {
	if r.sealed {
		return nil
	}
	for _, s := range r.order {
		for i := range s.fields {
			f := &s.fields[i]
			d, err := r.resolve(f.Type)
			if err != nil {
				if ut, ok := err.(*UnsupportedTypeError); ok {
					ut.Schema, ut.Field = s.name, f.Name
				}
				return err
			}
			f.Type = d
		}
	}
	if err := r.checkCycles(); err != nil {
		return err
	}
	r.sealed = true
	return nil
}

// MustSeal is like Seal but panics on error.
func (r *Registry) MustSeal() *Registry {
	if err := r.Seal(); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) resolve(d Descriptor) (Descriptor, error) {
	switch d.kind {
	case KindStruct:
		s, ok := r.schemas[d.ref]
		if !ok {
			return Descriptor{}, &UnsupportedTypeError{Notation: d.String(), Reason: "reference to undeclared schema"}
		}
		if d.schema != nil && d.schema != s {
			return Descriptor{}, &UnsupportedTypeError{Notation: d.String(), Reason: "schema belongs to another registry"}
		}
		return Descriptor{kind: KindStruct, ref: d.ref, schema: s}, nil
	case KindSequence:
		inner, err := r.resolve(*d.elem)
		if err != nil {
			return Descriptor{}, err
		}
		return Seq(inner), nil
	}
	return d, nil
}

// checkCycles walks edges Schema -> Schema formed by non-nilable fields whose
// descriptor is a bare struct reference.
func (r *Registry) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Schema]int, len(r.order))
	var path []string
	var visit func(s *Schema) error
	visit = func(s *Schema) error {
		state[s] = visiting
		path = append(path, s.name)
		for _, f := range s.fields {
			if f.Nilable || f.Type.kind != KindStruct {
				continue
			}
			next := f.Type.schema
			switch state[next] {
			case visiting:
				cycle := append(append([]string{}, path...), next.name)
				return &UnsupportedTypeError{Schema: s.name, Field: f.Name, Notation: f.Type.String(),
					Reason: "non-nilable reference cycle " + strings.Join(cycle, " -> ")}
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[s] = done
		return nil
	}
	for _, s := range r.order {
		if state[s] == unvisited {
			if err := visit(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Builder accumulates field declarations for one schema. The first error
// sticks and is returned by Build.
type Builder struct {
	reg *Registry
	s   *Schema
	err error
}

// FieldOption configures a field declaration.
type FieldOption func(*Field)

// Nilable allows the field to hold nil; its zero value becomes nil.
func Nilable() FieldOption { return func(f *Field) { f.Nilable = true } }

// Tag sets the wire tag from a directive string (see ParseTag).
func Tag(directive string) FieldOption {
	return func(f *Field) { f.Tag = ParseTag(directive) }
}

// Field declares a field. Declaration order is serialization order.
func (b *Builder) Field(name string, d Descriptor, opts ...FieldOption) *Builder {
	if b.err != nil {
		return b
	}
	if b.s.built {
		b.err = &DuplicateSchemaError{Schema: b.s.name}
		return b
	}
	if name == "" {
		b.err = &UnsupportedTypeError{Schema: b.s.name, Reason: "field name must not be empty"}
		return b
	}
	if err := d.validate(); err != nil {
		if ut, ok := err.(*UnsupportedTypeError); ok {
			ut.Schema, ut.Field = b.s.name, name
		}
		b.err = err
		return b
	}
	if _, dup := b.s.index[name]; dup {
		b.err = &DuplicateFieldError{Schema: b.s.name, Field: name}
		return b
	}
	f := Field{Name: name, Type: d}
	for _, opt := range opts {
		opt(&f)
	}
	b.s.index[name] = len(b.s.fields)
	b.s.fields = append(b.s.fields, f)
	return b
}

// FieldOf declares a field from loose notation (see DescriptorOf).
func (b *Builder) FieldOf(name string, notation any, opts ...FieldOption) *Builder {
	if b.err != nil {
		return b
	}
	d, err := DescriptorOf(notation)
	if err != nil {
		if ut, ok := err.(*UnsupportedTypeError); ok {
			ut.Schema, ut.Field = b.s.name, name
		}
		b.err = err
		return b
	}
	return b.Field(name, d, opts...)
}

// Build registers the schema with the registry.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.reg.sealed {
		return nil, ErrRegistrySealed
	}
	if b.reg.schemas[b.s.name] != nil {
		return nil, &DuplicateSchemaError{Schema: b.s.name}
	}
	b.s.built = true
	b.reg.schemas[b.s.name] = b.s
	b.reg.order = append(b.reg.order, b.s)
	return b.s, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
