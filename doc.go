// Package typedstruct declares typed record schemas at configuration time and
// enforces them on every construction and mutation of a record.
//
// Overview:
//
// - Descriptors (Int, String, Float, Bool, Sym, Any, Ref, Seq) describe field types
// - A Registry collects schemas through a builder and is sealed before use
// - Records validate every write and never hold an ill-typed value
// - Marshal/Unmarshal convert between records and generic trees (package tree)
// - Wire adapters live under codec/json and codec/yaml; schema files under schemafile
// - Package httpbind decodes HTTP request bodies into records
// - The CLI lives under cmd/typedstruct
//
// Typical usage:
//
//	reg := typedstruct.NewRegistry()
//	reg.Declare("Child").Field("n", typedstruct.Int()).MustBuild()
//	reg.Declare("Parent").
//		Field("obj", typedstruct.Ref("Child"), typedstruct.Nilable()).
//		Field("tags", typedstruct.Seq(typedstruct.String()), typedstruct.Tag("labels,omitempty")).
//		MustBuild()
//	reg.MustSeal()
//
//	parent, _ := reg.Lookup("Parent")
//	rec, err := parent.New(map[string]any{"tags": []string{"a"}})
//	data, err := jsoncodec.Marshal(rec) // package codec/json
package typedstruct
