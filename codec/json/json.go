// Package json is the JSON wire adapter. Output is compact, ordered by schema
// declaration and keeps a fraction digit on every float.
package json

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/codec"
	eng "github.com/reoring/typedstruct/internal/engine"
	"github.com/reoring/typedstruct/internal/source/gojson"
	"github.com/reoring/typedstruct/tree"
)

// ContentType is the MIME type produced by this codec.
const ContentType = "application/json"

// ErrUnsupportedFloat is returned for NaN and infinite floats, which JSON
// cannot represent.
var ErrUnsupportedFloat = errors.New("json: unsupported float value")

// Marshal encodes a *Record, a []*Record or a tree value as compact JSON.
func Marshal(v any) ([]byte, error) {
	tv, err := typedstruct.MarshalValue(v)
	if err != nil {
		return nil, err
	}
	e := newEncoder()
	if err := e.value(tv); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// Decode parses JSON into an ordered generic tree.
func Decode(data []byte, opts ...typedstruct.UnmarshalOpt) (any, error) {
	opt := typedstruct.UnmarshalOpt{}
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	src := eng.WrapWithEnforcement(gojson.NewBytes(data), eng.EnforceOptions{
		OnDuplicate: dupStrictness(opt.Duplicate),
		MaxDepth:    opt.MaxDepth,
	})
	v, err := eng.DecodeTree(src)
	if err != nil {
		return nil, toParseError(err)
	}
	// the token stream skips separators, so syntax is checked on the whole input
	if !j.Valid(data) {
		return nil, &typedstruct.ParseError{Kind: typedstruct.CodeParseError, Message: "invalid JSON syntax", Offset: -1}
	}
	return v, nil
}

// Unmarshal decodes a JSON object into a record of schema s.
func Unmarshal(data []byte, s *typedstruct.Schema, opts ...typedstruct.UnmarshalOpt) (*typedstruct.Record, error) {
	v, err := Decode(data, opts...)
	if err != nil {
		return nil, err
	}
	return typedstruct.Unmarshal(v, s, opts...)
}

// UnmarshalList decodes a JSON array of s objects.
func UnmarshalList(data []byte, s *typedstruct.Schema, opts ...typedstruct.UnmarshalOpt) ([]*typedstruct.Record, error) {
	v, err := Decode(data, opts...)
	if err != nil {
		return nil, err
	}
	return typedstruct.UnmarshalList(v, s, opts...)
}

// UnmarshalAs decodes JSON against an arbitrary resolved descriptor.
func UnmarshalAs(data []byte, d typedstruct.Descriptor, opts ...typedstruct.UnmarshalOpt) (any, error) {
	v, err := Decode(data, opts...)
	if err != nil {
		return nil, err
	}
	return typedstruct.UnmarshalAs(v, d, opts...)
}

// Codec returns the JSON adapter as a codec.Codec.
func Codec(opts ...typedstruct.UnmarshalOpt) codec.Codec {
	return jsonCodec{opts: opts}
}

type jsonCodec struct{ opts []typedstruct.UnmarshalOpt }

func (jsonCodec) ContentType() string { return ContentType }

func (jsonCodec) Marshal(v any) ([]byte, error) { return Marshal(v) }

func (c jsonCodec) Unmarshal(data []byte, d typedstruct.Descriptor) (any, error) {
	return UnmarshalAs(data, d, c.opts...)
}

func dupStrictness(p typedstruct.DuplicatePolicy) eng.DuplicateStrictness {
	if p == typedstruct.DuplicateIgnore {
		return eng.DupIgnore
	}
	return eng.DupError
}

func toParseError(err error) error {
	var ee *eng.Error
	if !errors.As(err, &ee) {
		return &typedstruct.ParseError{Kind: typedstruct.CodeParseError, Message: err.Error(), Offset: -1, Cause: err}
	}
	return &typedstruct.ParseError{Kind: ee.Code, Path: ee.Path, Message: ee.Message, Offset: -1, Cause: ee.Cause}
}

// encoder writes tree values. Strings go through a go-json encoder with HTML
// escaping disabled.
type encoder struct {
	buf     bytes.Buffer
	scratch bytes.Buffer
	str     *j.Encoder
}

func newEncoder() *encoder {
	e := &encoder{}
	e.str = j.NewEncoder(&e.scratch)
	e.str.SetEscapeHTML(false)
	return e
}

func (e *encoder) value(v any) error {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case int64:
		e.buf.WriteString(strconv.FormatInt(t, 10))
	case float64:
		s, err := FormatFloat(t)
		if err != nil {
			return err
		}
		e.buf.WriteString(s)
	case string:
		return e.string(t)
	case tree.Symbol:
		return e.string(string(t))
	case []any:
		e.buf.WriteByte('[')
		for i, el := range t {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.value(el); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	case *tree.Map:
		e.buf.WriteByte('{')
		var err error
		i := 0
		t.Range(func(k string, el any) bool {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			i++
			if err = e.string(k); err != nil {
				return false
			}
			e.buf.WriteByte(':')
			err = e.value(el)
			return err == nil
		})
		if err != nil {
			return err
		}
		e.buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: %T", tree.ErrUnsupportedValue, v)
	}
	return nil
}

func (e *encoder) string(s string) error {
	e.scratch.Reset()
	if err := e.str.Encode(s); err != nil {
		return err
	}
	e.buf.Write(bytes.TrimSuffix(e.scratch.Bytes(), []byte("\n")))
	return nil
}

// FormatFloat renders f with at least one fraction digit: 0.0, 1.5, 1.0e+21.
func FormatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFloat, f)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if strings.Contains(s, ".") {
		return s, nil
	}
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		return s[:i] + ".0" + s[i:], nil
	}
	return s + ".0", nil
}
