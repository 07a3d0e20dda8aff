package typedstruct

import "strings"

// WireTag holds the per-field wire directives. The zero WireTag keeps the
// field name, never omits and never skips.
type WireTag struct {
	Rename    string
	OmitEmpty bool
	Skip      bool
}

// ParseTag parses a directive string of the form "name,omitempty".
//
//	""              field name, always emitted
//	"other"         rename to "other"
//	",omitempty"    field name, omitted when empty
//	"-"             skipped in both directions
//	"-,"            literal key "-"
func ParseTag(directive string) WireTag {
	if directive == "-" {
		return WireTag{Skip: true}
	}
	name, rest, _ := strings.Cut(directive, ",")
	tag := WireTag{Rename: name}
	// only the option immediately after the name is recognised
	if opt, _, _ := strings.Cut(rest, ","); opt == "omitempty" {
		tag.OmitEmpty = true
	}
	return tag
}

// Key returns the wire key for a field named field.
func (t WireTag) Key(field string) string {
	if t.Rename != "" {
		return t.Rename
	}
	return field
}

// String renders the tag back into directive form.
func (t WireTag) String() string {
	if t.Skip {
		return "-"
	}
	if t.OmitEmpty {
		return t.Rename + ",omitempty"
	}
	if t.Rename == "-" {
		return "-,"
	}
	return t.Rename
}
