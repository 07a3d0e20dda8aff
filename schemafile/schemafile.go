// Package schemafile declares schemas from a YAML (or JSON) document instead
// of Go code:
//
//	schemas:
//	  - name: Child
//	    fields:
//	      - {name: n, type: int}
//	  - name: Parent
//	    fields:
//	      - {name: obj, type: Child, nilable: true}
//	      - {name: tags, type: [string], tag: "labels,omitempty"}
//
// Types use the notation accepted by typedstruct.DescriptorOf.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reoring/typedstruct"
)

// ErrNoSchemas is returned for a document that declares nothing.
var ErrNoSchemas = errors.New("schemafile: no schemas declared")

// File is the document layout.
type File struct {
	Schemas []SchemaDecl `yaml:"schemas"`
}

// SchemaDecl declares one schema.
type SchemaDecl struct {
	Name   string      `yaml:"name"`
	Fields []FieldDecl `yaml:"fields"`
}

// FieldDecl declares one field. Type holds a primitive name, a schema name
// or a one-element list for sequences.
type FieldDecl struct {
	Name    string `yaml:"name"`
	Type    any    `yaml:"type"`
	Nilable bool   `yaml:"nilable,omitempty"`
	Tag     string `yaml:"tag,omitempty"`
}

// Parse decodes the document layout without declaring anything. Unknown
// keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSchemas
		}
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	if len(f.Schemas) == 0 {
		return nil, ErrNoSchemas
	}
	return &f, nil
}

// Registry declares every schema of f into a fresh registry and seals it.
func (f *File) Registry() (*typedstruct.Registry, error) {
	reg := typedstruct.NewRegistry()
	for _, sd := range f.Schemas {
		b := reg.Declare(sd.Name)
		for _, fd := range sd.Fields {
			var opts []typedstruct.FieldOption
			if fd.Nilable {
				opts = append(opts, typedstruct.Nilable())
			}
			if fd.Tag != "" {
				opts = append(opts, typedstruct.Tag(fd.Tag))
			}
			b.FieldOf(fd.Name, fd.Type, opts...)
		}
		if _, err := b.Build(); err != nil {
			return nil, err
		}
	}
	if err := reg.Seal(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Load parses a schema document and returns the sealed registry.
func Load(data []byte) (*typedstruct.Registry, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return f.Registry()
}

// LoadFile is Load for a file on disk.
func LoadFile(path string) (*typedstruct.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reg, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// FromRegistry describes the schemas of reg in document form. Types are
// written in their string notation, e.g. "[Child]".
func FromRegistry(reg *typedstruct.Registry) *File {
	f := &File{}
	for _, s := range reg.Schemas() {
		sd := SchemaDecl{Name: s.Name()}
		for _, fld := range s.Fields() {
			sd.Fields = append(sd.Fields, FieldDecl{
				Name:    fld.Name,
				Type:    fld.Type.String(),
				Nilable: fld.Nilable,
				Tag:     fld.Tag.String(),
			})
		}
		f.Schemas = append(f.Schemas, sd)
	}
	return f
}

// Marshal renders f as YAML.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
