package schemafile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/schemafile"
)

const doc = `schemas:
  - name: Parent
    fields:
      - {name: obj, type: Child, nilable: true}
      - {name: tags, type: [string], tag: "labels,omitempty"}
      - {name: grid, type: [[int]]}
      - {name: kind, type: symbol, tag: "-,"}
  - name: Child
    fields:
      - {name: n, type: int}
`

func TestLoad(t *testing.T) {
	reg, err := schemafile.Load([]byte(doc))
	require.NoError(t, err)
	require.True(t, reg.Sealed())

	parent, ok := reg.Lookup("Parent")
	require.True(t, ok)
	fields := parent.Fields()
	require.Len(t, fields, 4)

	assert.Equal(t, typedstruct.KindStruct, fields[0].Type.Kind())
	assert.True(t, fields[0].Nilable)
	assert.Equal(t, "[string]", fields[1].Type.String())
	assert.Equal(t, typedstruct.WireTag{Rename: "labels", OmitEmpty: true}, fields[1].Tag)
	assert.Equal(t, "[[int]]", fields[2].Type.String())
	assert.Equal(t, "-", fields[3].Tag.Key("kind"))

	rec := parent.Zero()
	obj, err := rec.Record("obj")
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestLoad_InvalidArrayTypes(t *testing.T) {
	for name, typ := range map[string]string{
		"empty":      "[]",
		"number":     "[0]",
		"two":        "[int, int]",
		"bad name":   "['in valid']",
		"mapping":    "{int: int}",
		"undeclared": "[Missing]",
	} {
		t.Run(name, func(t *testing.T) {
			src := "schemas:\n  - name: S\n    fields:\n      - {name: arr, type: " + typ + "}\n"
			_, err := schemafile.Load([]byte(src))
			ut, ok := typedstruct.AsUnsupportedType(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, "S", ut.Schema)
			assert.Equal(t, "arr", ut.Field)
		})
	}
}

func TestLoad_DeclarationErrors(t *testing.T) {
	_, err := schemafile.Load([]byte("schemas:\n  - name: S\n    fields:\n      - {name: a, type: int}\n      - {name: a, type: int}\n"))
	var df *typedstruct.DuplicateFieldError
	assert.ErrorAs(t, err, &df)

	_, err = schemafile.Load([]byte("schemas:\n  - name: S\n  - name: S\n"))
	var ds *typedstruct.DuplicateSchemaError
	assert.ErrorAs(t, err, &ds)

	_, err = schemafile.Load([]byte("schemas: []\n"))
	assert.ErrorIs(t, err, schemafile.ErrNoSchemas)

	_, err = schemafile.Load([]byte("schemas:\n  - name: S\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemas":[{"name":"S","fields":[{"name":"xs","type":["float"]}]}]}`), 0o600))

	reg, err := schemafile.LoadFile(path)
	require.NoError(t, err)
	s, ok := reg.Lookup("S")
	require.True(t, ok)
	f, _ := s.Field("xs")
	assert.Equal(t, "[float]", f.Type.String())

	_, err = schemafile.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromRegistry_RoundTrip(t *testing.T) {
	reg, err := schemafile.Load([]byte(doc))
	require.NoError(t, err)

	out, err := schemafile.FromRegistry(reg).Marshal()
	require.NoError(t, err)

	again, err := schemafile.Load(out)
	require.NoError(t, err, string(out))
	for _, s := range reg.Schemas() {
		s2, ok := again.Lookup(s.Name())
		require.True(t, ok)
		require.Equal(t, s.NumFields(), s2.NumFields())
		for i, f := range s.Fields() {
			f2 := s2.Fields()[i]
			assert.Equal(t, f.Name, f2.Name)
			assert.Equal(t, f.Type.String(), f2.Type.String(), f.Name)
			assert.Equal(t, f.Nilable, f2.Nilable)
			assert.Equal(t, f.Tag, f2.Tag)
		}
	}
}
