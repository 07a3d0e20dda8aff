package main

import (
	"github.com/spf13/cobra"

	"github.com/reoring/typedstruct/schemafile"
)

func newSchemaCmd(a *app) *cobra.Command {
	var schemas string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Check a schema file and print it in canonical form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := schemafile.LoadFile(schemas)
			if err != nil {
				return a.fail(err, "load schemas")
			}
			out, err := schemafile.FromRegistry(reg).Marshal()
			if err != nil {
				return a.fail(err, "encode")
			}
			a.logger.Debug().Int("schemas", len(reg.Schemas())).Msg("schema file is valid")
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&schemas, "schemas", "", "schema file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("schemas")
	return cmd
}
