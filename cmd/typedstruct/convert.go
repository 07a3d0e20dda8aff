package main

import (
	"github.com/spf13/cobra"
)

type convertOptions struct {
	schemas string
	typ     string
	list    bool
	from    string
	to      string
}

func newConvertCmd(a *app) *cobra.Command {
	var o convertOptions
	cmd := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Decode a document through a schema and re-encode it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return a.convert(cmd, o, path)
		},
	}
	cmd.Flags().StringVar(&o.schemas, "schemas", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVar(&o.typ, "type", "", "schema name of the document")
	cmd.Flags().BoolVar(&o.list, "list", false, "the document is a list of records")
	cmd.Flags().StringVar(&o.from, "from", "", "input format: json or yaml (default: by extension)")
	cmd.Flags().StringVar(&o.to, "to", formatJSON, "output format: json or yaml")
	_ = cmd.MarkFlagRequired("schemas")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (a *app) convert(cmd *cobra.Command, o convertOptions, path string) error {
	from, err := detectFormat(o.from, path)
	if err != nil {
		return a.fail(err, "convert")
	}
	to, err := parseFormat(o.to)
	if err != nil {
		return a.fail(err, "convert")
	}
	d, err := a.target(o.schemas, o.typ, o.list)
	if err != nil {
		return a.fail(err, "load schemas")
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return a.fail(err, "read input")
	}
	v, err := a.codecFor(from).Unmarshal(data, d)
	if err != nil {
		return a.fail(err, "decode")
	}
	out, err := a.encode(to, v)
	if err != nil {
		return a.fail(err, "encode")
	}
	a.logger.Debug().Str("from", from).Str("to", to).Int("bytes", len(out)).Msg("converted")
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
