package typedstruct

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/typedstruct/i18n"
)

// Error codes reported by Coder.Code.
const (
	// Declaration errors
	CodeUnsupportedType = "unsupported_type"
	CodeDuplicateField  = "duplicate_field"
	CodeDuplicateSchema = "duplicate_schema"
	CodeRegistryOpen    = "registry_open"
	// Data errors
	CodeTypeMismatch = "type_mismatch"
	CodeUnknownField = "unknown_field"
	CodeUnknownKey   = "unknown_key"
	CodeRecordCycle  = "record_cycle"
	// Wire errors
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// ErrRegistryOpen is returned when records are built from a schema whose
// registry has not been sealed yet.
var ErrRegistryOpen = errors.New("typedstruct: " + CodeRegistryOpen)

// Coder is implemented by every error type of this package.
type Coder interface {
	Code() string
}

// CodeOf returns the code of the first Coder in err's chain, or "" if none.
func CodeOf(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	if errors.Is(err, ErrRegistryOpen) {
		return CodeRegistryOpen
	}
	return ""
}

// UnsupportedTypeError reports an invalid type descriptor at declaration time.
type UnsupportedTypeError struct {
	Schema   string
	Field    string
	Notation string // rendering of the offending descriptor
	Reason   string
}

func (e *UnsupportedTypeError) Code() string { return CodeUnsupportedType }

func (e *UnsupportedTypeError) Error() string {
	b := &strings.Builder{}
	b.WriteString("typedstruct: ")
	b.WriteString(i18n.T(CodeUnsupportedType, nil))
	if e.Notation != "" {
		fmt.Fprintf(b, " %s", e.Notation)
	}
	if e.Schema != "" || e.Field != "" {
		fmt.Fprintf(b, " for %s.%s", e.Schema, e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(b, ": %s", e.Reason)
	}
	return b.String()
}

// DuplicateFieldError reports a field name declared twice in one schema.
type DuplicateFieldError struct {
	Schema string
	Field  string
}

func (e *DuplicateFieldError) Code() string { return CodeDuplicateField }

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("typedstruct: %s: %s.%s", i18n.T(CodeDuplicateField, nil), e.Schema, e.Field)
}

// DuplicateSchemaError reports a schema name declared twice in one registry.
type DuplicateSchemaError struct {
	Schema string
}

func (e *DuplicateSchemaError) Code() string { return CodeDuplicateSchema }

func (e *DuplicateSchemaError) Error() string {
	return fmt.Sprintf("typedstruct: %s: %s", i18n.T(CodeDuplicateSchema, nil), e.Schema)
}

// TypeMismatchError reports a value rejected by a field's descriptor and
// nilability. Path is a JSON Pointer into the wire tree when the error comes
// from deserialization, and "/<field>" otherwise.
type TypeMismatchError struct {
	Schema   string
	Field    string
	Path     string
	Expected Descriptor
	Nilable  bool
	Actual   any
}

func (e *TypeMismatchError) Code() string { return CodeTypeMismatch }

func (e *TypeMismatchError) Error() string {
	exp := e.Expected.String()
	if e.Nilable {
		exp += " or nil"
	}
	return fmt.Sprintf("typedstruct: %s at %s (%s.%s): expected %s, got %s",
		i18n.T(CodeTypeMismatch, nil), e.Path, e.Schema, e.Field, exp, describeValue(e.Actual))
}

// UnknownFieldError reports access to a field the schema does not declare.
type UnknownFieldError struct {
	Schema string
	Field  string
}

func (e *UnknownFieldError) Code() string { return CodeUnknownField }

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("typedstruct: %s: %s.%s", i18n.T(CodeUnknownField, nil), e.Schema, e.Field)
}

// CycleError reports an assignment that would make a record reachable from
// itself.
type CycleError struct {
	Schema string
	Field  string
	Path   string
}

func (e *CycleError) Code() string { return CodeRecordCycle }

func (e *CycleError) Error() string {
	return fmt.Sprintf("typedstruct: %s at %s (%s.%s)", i18n.T(CodeRecordCycle, nil), e.Path, e.Schema, e.Field)
}

// UnknownKeyError reports a wire key that matches no field when decoding
// with UnknownReject.
type UnknownKeyError struct {
	Schema string
	Key    string
	Path   string
}

func (e *UnknownKeyError) Code() string { return CodeUnknownKey }

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("typedstruct: %s at %s (%s)", i18n.T(CodeUnknownKey, nil), e.Path, e.Schema)
}

// ParseError reports malformed wire input. Line and Column are 1-based and
// zero when unknown; Offset is -1 when unknown.
type ParseError struct {
	Kind    string // one of CodeParseError, CodeDuplicateKey, CodeTruncated
	Path    string
	Message string
	Line    int
	Column  int
	Offset  int64
	Cause   error
}

func (e *ParseError) Code() string {
	if e.Kind == "" {
		return CodeParseError
	}
	return e.Kind
}

func (e *ParseError) Error() string {
	b := &strings.Builder{}
	b.WriteString("typedstruct: ")
	b.WriteString(i18n.T(e.Code(), nil))
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(b, " (line %d, column %d)", e.Line, e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Cause }

// AsTypeMismatch extracts a *TypeMismatchError from err using errors.As.
func AsTypeMismatch(err error) (*TypeMismatchError, bool) {
	var tm *TypeMismatchError
	if errors.As(err, &tm) {
		return tm, true
	}
	return nil, false
}

// AsUnsupportedType extracts an *UnsupportedTypeError from err using errors.As.
func AsUnsupportedType(err error) (*UnsupportedTypeError, bool) {
	var ut *UnsupportedTypeError
	if errors.As(err, &ut) {
		return ut, true
	}
	return nil, false
}

// AsParseError extracts a *ParseError from err using errors.As.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// describeValue renders a value for diagnostics without dumping whole trees.
func describeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case *Record:
		if t == nil {
			return "nil"
		}
		return "record " + t.schema.name
	case string:
		return fmt.Sprintf("string %q", t)
	case Symbol:
		return fmt.Sprintf("symbol :%s", string(t))
	case []any:
		return fmt.Sprintf("sequence of %d", len(t))
	}
	return fmt.Sprintf("%T %v", v, v)
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// pointerAt appends a key or index token to a JSON Pointer.
func pointerAt(base string, token string) string {
	if base == "/" {
		base = ""
	}
	return base + "/" + pointerEscaper.Replace(token)
}
