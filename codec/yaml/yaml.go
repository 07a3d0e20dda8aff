// Package yaml is the YAML wire adapter. Documents are written in block style
// with two-space indentation; streams are separated by "---".
package yaml

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/codec"
)

// ContentType is the MIME type produced by this codec.
const ContentType = "application/yaml"

// ErrStreamLength is returned when a stream's document count differs from the
// number of schemas it is decoded against.
var ErrStreamLength = errors.New("yaml: document count does not match schema count")

// Marshal encodes a *Record, a []*Record or a tree value as one YAML document.
func Marshal(v any) ([]byte, error) {
	return MarshalStream(v)
}

// MarshalStream encodes each value as its own document.
func MarshalStream(values ...any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, v := range values {
		tv, err := typedstruct.MarshalValue(v)
		if err != nil {
			return nil, err
		}
		n, err := toNode(tv)
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(n); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a YAML mapping into a record of schema s.
func Unmarshal(data []byte, s *typedstruct.Schema, opts ...typedstruct.UnmarshalOpt) (*typedstruct.Record, error) {
	v, err := Decode(data, opts...)
	if err != nil {
		return nil, err
	}
	return typedstruct.Unmarshal(v, s, opts...)
}

// UnmarshalList decodes a YAML sequence of s mappings.
func UnmarshalList(data []byte, s *typedstruct.Schema, opts ...typedstruct.UnmarshalOpt) ([]*typedstruct.Record, error) {
	v, err := Decode(data, opts...)
	if err != nil {
		return nil, err
	}
	return typedstruct.UnmarshalList(v, s, opts...)
}

// UnmarshalAs decodes YAML against an arbitrary resolved descriptor.
func UnmarshalAs(data []byte, d typedstruct.Descriptor, opts ...typedstruct.UnmarshalOpt) (any, error) {
	v, err := Decode(data, opts...)
	if err != nil {
		return nil, err
	}
	return typedstruct.UnmarshalAs(v, d, opts...)
}

// UnmarshalStream decodes a multi-document stream, pairing documents with
// schemas by position.
func UnmarshalStream(data []byte, schemas ...*typedstruct.Schema) ([]*typedstruct.Record, error) {
	return UnmarshalStreamOpt(data, typedstruct.UnmarshalOpt{}, schemas...)
}

// UnmarshalStreamOpt is UnmarshalStream with decoding options applied to
// every document.
func UnmarshalStreamOpt(data []byte, opt typedstruct.UnmarshalOpt, schemas ...*typedstruct.Schema) ([]*typedstruct.Record, error) {
	docs, err := DecodeStream(data, opt)
	if err != nil {
		return nil, err
	}
	if len(docs) != len(schemas) {
		return nil, fmt.Errorf("%w: %d documents, %d schemas", ErrStreamLength, len(docs), len(schemas))
	}
	out := make([]*typedstruct.Record, len(docs))
	for i, doc := range docs {
		r, err := typedstruct.Unmarshal(doc, schemas[i], opt)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// Codec returns the YAML adapter as a codec.Codec.
func Codec(opts ...typedstruct.UnmarshalOpt) codec.Codec {
	return yamlCodec{opts: opts}
}

type yamlCodec struct{ opts []typedstruct.UnmarshalOpt }

func (yamlCodec) ContentType() string { return ContentType }

func (yamlCodec) Marshal(v any) ([]byte, error) { return Marshal(v) }

func (c yamlCodec) Unmarshal(data []byte, d typedstruct.Descriptor) (any, error) {
	return UnmarshalAs(data, d, c.opts...)
}
