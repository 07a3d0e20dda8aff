package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/codec"
	jsoncodec "github.com/reoring/typedstruct/codec/json"
	yamlcodec "github.com/reoring/typedstruct/codec/yaml"
	"github.com/reoring/typedstruct/schemafile"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func parseFormat(s string) (string, error) {
	switch strings.ToLower(s) {
	case "json":
		return formatJSON, nil
	case "yaml", "yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// detectFormat prefers the explicit flag, then the file extension. Stdin
// without a flag is read as JSON.
func detectFormat(flag, path string) (string, error) {
	if flag != "" {
		return parseFormat(flag)
	}
	if path == "" || path == "-" {
		return formatJSON, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("cannot detect format of %s; pass --from", path)
}

func (a *app) codecFor(format string) codec.Codec {
	opt := a.cfg.UnmarshalOpt()
	if format == formatYAML {
		return yamlcodec.Codec(opt)
	}
	return jsoncodec.Codec(opt)
}

// target loads the schema file and resolves the descriptor documents are
// decoded against.
func (a *app) target(schemasPath, typeName string, list bool) (typedstruct.Descriptor, error) {
	reg, err := schemafile.LoadFile(schemasPath)
	if err != nil {
		return typedstruct.Descriptor{}, err
	}
	s, ok := reg.Lookup(typeName)
	if !ok {
		return typedstruct.Descriptor{}, fmt.Errorf("schema %q not declared in %s", typeName, schemasPath)
	}
	a.logger.Debug().Str("schemas", schemasPath).Str("type", typeName).Int("fields", s.NumFields()).Msg("schema loaded")
	d := typedstruct.RefTo(s)
	if list {
		d = typedstruct.Seq(d)
	}
	return d, nil
}

// encode renders v and terminates JSON output with a newline.
func (a *app) encode(format string, v any) ([]byte, error) {
	out, err := a.codecFor(format).Marshal(v)
	if err != nil {
		return nil, err
	}
	if format == formatJSON {
		out = append(out, '\n')
	}
	return out, nil
}
