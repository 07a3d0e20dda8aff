package typedstruct

// Field is one declared field of a schema.
type Field struct {
	Name    string
	Type    Descriptor
	Nilable bool
	Tag     WireTag
}

// Schema is the ordered list of fields of one record type. A schema is
// immutable once built.
type Schema struct {
	name   string
	reg    *Registry
	fields []Field
	index  map[string]int
	built  bool
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Registry returns the registry the schema was declared in.
func (s *Schema) Registry() *Registry { return s.reg }

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// NumFields returns the number of declared fields.
func (s *Schema) NumFields() int { return len(s.fields) }

// Field returns the field declared under name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

func (s *Schema) String() string { return s.name }

func (s *Schema) ready() error {
	if s.reg == nil || !s.reg.sealed {
		return ErrRegistryOpen
	}
	return nil
}
