package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type validateOptions struct {
	schemas string
	typ     string
	list    bool
	from    string
	watch   bool
}

func newValidateCmd(a *app) *cobra.Command {
	var o validateOptions
	cmd := &cobra.Command{
		Use:   "validate file",
		Short: "Type-check a document against a schema",
		Long: `Type-check a document against a schema. The command exits non-zero on
the first data error. With --watch it keeps running and re-validates the
document every time it is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(cmd, o, args[0])
		},
	}
	cmd.Flags().StringVar(&o.schemas, "schemas", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVar(&o.typ, "type", "", "schema name of the document")
	cmd.Flags().BoolVar(&o.list, "list", false, "the document is a list of records")
	cmd.Flags().StringVar(&o.from, "from", "", "input format: json or yaml (default: by extension)")
	cmd.Flags().BoolVar(&o.watch, "watch", false, "re-validate whenever the file changes")
	_ = cmd.MarkFlagRequired("schemas")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (a *app) validate(cmd *cobra.Command, o validateOptions, path string) error {
	format, err := detectFormat(o.from, path)
	if err != nil {
		return a.fail(err, "validate")
	}
	d, err := a.target(o.schemas, o.typ, o.list)
	if err != nil {
		return a.fail(err, "load schemas")
	}
	check := func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return a.fail(err, "read input")
		}
		if _, err := a.codecFor(format).Unmarshal(data, d); err != nil {
			return a.fail(err, "invalid document")
		}
		a.logger.Info().Str("file", path).Str("type", o.typ).Str("format", format).Msg("document is valid")
		return nil
	}
	if !o.watch {
		return check()
	}

	_ = check()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	w, err := newFileWatcher(path, a.logger, func() { _ = check() })
	if err != nil {
		return a.fail(err, "watch")
	}
	return w.run(ctx)
}
