package typedstruct

import (
	"fmt"
	"strings"
)

// Kind enumerates the shapes a Descriptor can take.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindString
	KindFloat
	KindBool
	KindSymbol
	KindAny
	KindStruct   // reference to a declared schema
	KindSequence // ordered list of one element descriptor
)

var primitiveNames = map[string]Kind{
	"int":    KindInt,
	"string": KindString,
	"float":  KindFloat,
	"bool":   KindBool,
	"symbol": KindSymbol,
	"any":    KindAny,
}

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindSymbol:
		return "symbol"
	case KindAny:
		return "any"
	case KindStruct:
		return "struct"
	case KindSequence:
		return "sequence"
	default:
		return "invalid"
	}
}

// Descriptor describes what kind of value may live in a field. It is an
// immutable value; the zero Descriptor is invalid.
type Descriptor struct {
	kind   Kind
	ref    string
	schema *Schema
	elem   *Descriptor
}

// Int, String, Float, Bool, Sym and Any return primitive descriptors.
func Int() Descriptor    { return Descriptor{kind: KindInt} }
func String() Descriptor { return Descriptor{kind: KindString} }
func Float() Descriptor  { return Descriptor{kind: KindFloat} }
func Bool() Descriptor   { return Descriptor{kind: KindBool} }
func Sym() Descriptor    { return Descriptor{kind: KindSymbol} }
func Any() Descriptor    { return Descriptor{kind: KindAny} }

// Ref references a schema by name. The name may belong to a schema declared
// later in the same registry; it is resolved when the registry is sealed.
func Ref(name string) Descriptor { return Descriptor{kind: KindStruct, ref: name} }

// RefTo references an already built schema.
func RefTo(s *Schema) Descriptor {
	if s == nil {
		return Descriptor{kind: KindStruct}
	}
	return Descriptor{kind: KindStruct, ref: s.name, schema: s}
}

// Seq describes an ordered sequence whose elements all satisfy inner.
func Seq(inner Descriptor) Descriptor {
	e := inner
	return Descriptor{kind: KindSequence, elem: &e}
}

// Kind returns the descriptor kind.
func (d Descriptor) Kind() Kind { return d.kind }

// IsPrimitive reports whether d is one of the scalar kinds (including Any).
func (d Descriptor) IsPrimitive() bool { return d.kind >= KindInt && d.kind <= KindAny }

// RefName returns the referenced schema name for struct descriptors.
func (d Descriptor) RefName() string { return d.ref }

// Elem returns the element descriptor of a sequence; ok is false otherwise.
func (d Descriptor) Elem() (Descriptor, bool) {
	if d.kind != KindSequence || d.elem == nil {
		return Descriptor{}, false
	}
	return *d.elem, true
}

// String renders d in schema-file notation: int, Child, [int], [[Child]].
func (d Descriptor) String() string {
	switch d.kind {
	case KindStruct:
		if d.ref == "" {
			return "<anonymous>"
		}
		return d.ref
	case KindSequence:
		if d.elem == nil {
			return "[]"
		}
		return "[" + d.elem.String() + "]"
	default:
		return d.kind.String()
	}
}

// validate checks the descriptor shape recursively. Struct references are
// only checked for a non-empty name here; resolution happens at Seal.
func (d Descriptor) validate() error {
	switch d.kind {
	case KindInt, KindString, KindFloat, KindBool, KindSymbol, KindAny:
		return nil
	case KindStruct:
		if d.ref == "" && d.schema == nil {
			return &UnsupportedTypeError{Notation: d.String(), Reason: "struct reference without a schema"}
		}
		return nil
	case KindSequence:
		if d.elem == nil {
			return &UnsupportedTypeError{Notation: d.String(), Reason: "sequence without an element type"}
		}
		if err := d.elem.validate(); err != nil {
			return err
		}
		return nil
	default:
		return &UnsupportedTypeError{Notation: d.String(), Reason: "unknown descriptor kind"}
	}
}

// DescriptorOf parses the loose notation used by schema files and config:
// a primitive name ("int", "string", "float", "bool", "symbol", "any"), any
// other identifier as a schema reference, or a one-element list for a
// sequence ([int], [[Child]]). A Descriptor passes through unchanged.
func DescriptorOf(v any) (Descriptor, error) {
	switch t := v.(type) {
	case Descriptor:
		if err := t.validate(); err != nil {
			return Descriptor{}, err
		}
		return t, nil
	case string:
		name := strings.TrimSpace(t)
		if k, ok := primitiveNames[name]; ok {
			return Descriptor{kind: k}, nil
		}
		if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
			return descriptorOfBracket(name)
		}
		if !isIdentifier(name) {
			return Descriptor{}, &UnsupportedTypeError{Notation: fmt.Sprintf("%q", t), Reason: "not a primitive name or schema identifier"}
		}
		return Ref(name), nil
	case []any:
		if len(t) != 1 {
			return Descriptor{}, &UnsupportedTypeError{Notation: fmt.Sprint(t), Reason: fmt.Sprintf("sequence needs exactly one element type, got %d", len(t))}
		}
		inner, err := DescriptorOf(t[0])
		if err != nil {
			return Descriptor{}, err
		}
		return Seq(inner), nil
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return DescriptorOf(items)
	}
	return Descriptor{}, &UnsupportedTypeError{Notation: fmt.Sprintf("%v (%T)", v, v), Reason: "unrecognized type notation"}
}

// descriptorOfBracket handles the inline string form "[int]" / "[[Child]]".
func descriptorOfBracket(s string) (Descriptor, error) {
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return Descriptor{}, &UnsupportedTypeError{Notation: s, Reason: "sequence needs exactly one element type, got 0"}
	}
	if depthSplit(inner) > 1 {
		return Descriptor{}, &UnsupportedTypeError{Notation: s, Reason: "sequence needs exactly one element type"}
	}
	d, err := DescriptorOf(inner)
	if err != nil {
		return Descriptor{}, err
	}
	return Seq(d), nil
}

// depthSplit counts top-level comma separated items.
func depthSplit(s string) int {
	n, depth := 1, 0
	for _, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				n++
			}
		}
	}
	return n
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
