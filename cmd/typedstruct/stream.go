package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/typedstruct"
	yamlcodec "github.com/reoring/typedstruct/codec/yaml"
	"github.com/reoring/typedstruct/schemafile"
)

type streamOptions struct {
	schemas string
	types   string
	to      string
}

func newStreamCmd(a *app) *cobra.Command {
	var o streamOptions
	cmd := &cobra.Command{
		Use:   "stream [file|-]",
		Short: "Decode a YAML multi-document stream positionally",
		Long: `Decode a YAML multi-document stream. The n-th document is decoded with
the n-th schema of --types. JSON output has one document per line.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return a.stream(cmd, o, path)
		},
	}
	cmd.Flags().StringVar(&o.schemas, "schemas", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVar(&o.types, "types", "", "comma-separated schema names, one per document")
	cmd.Flags().StringVar(&o.to, "to", formatJSON, "output format: json or yaml")
	_ = cmd.MarkFlagRequired("schemas")
	_ = cmd.MarkFlagRequired("types")
	return cmd
}

func (a *app) stream(cmd *cobra.Command, o streamOptions, path string) error {
	to, err := parseFormat(o.to)
	if err != nil {
		return a.fail(err, "stream")
	}
	reg, err := schemafile.LoadFile(o.schemas)
	if err != nil {
		return a.fail(err, "load schemas")
	}
	var schemas []*typedstruct.Schema
	for _, name := range splitCSV(o.types) {
		s, ok := reg.Lookup(name)
		if !ok {
			return a.fail(fmt.Errorf("schema %q not declared in %s", name, o.schemas), "load schemas")
		}
		schemas = append(schemas, s)
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return a.fail(err, "read input")
	}
	recs, err := yamlcodec.UnmarshalStreamOpt(data, a.cfg.UnmarshalOpt(), schemas...)
	if err != nil {
		return a.fail(err, "decode stream")
	}
	a.logger.Debug().Int("documents", len(recs)).Msg("stream decoded")

	out := cmd.OutOrStdout()
	if to == formatYAML {
		values := make([]any, len(recs))
		for i, r := range recs {
			values[i] = r
		}
		b, err := yamlcodec.MarshalStream(values...)
		if err != nil {
			return a.fail(err, "encode")
		}
		_, err = out.Write(b)
		return err
	}
	for _, r := range recs {
		b, err := a.encode(formatJSON, r)
		if err != nil {
			return a.fail(err, "encode")
		}
		if _, err := out.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
