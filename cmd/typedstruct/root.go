package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/i18n"
	"github.com/reoring/typedstruct/internal/config"
)

// app carries state shared by every subcommand once the root command has
// loaded configuration.
type app struct {
	envFile  string
	logLevel string
	lang     string

	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "typedstruct",
		Short: "Typed record schemas for JSON and YAML documents",
		Long: `typedstruct checks JSON and YAML documents against record schemas
declared in a schema file and converts them between formats.

Examples:
  typedstruct convert  --schemas schemas.yaml --type Parent --to yaml doc.json
  typedstruct validate --schemas schemas.yaml --type Parent --watch doc.yaml
  typedstruct stream   --schemas schemas.yaml --types A,B stream.yaml
  typedstruct serve    --schemas schemas.yaml --addr :8080`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load settings from this .env file (default ./.env when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override TYPEDSTRUCT_LOG_LEVEL")
	root.PersistentFlags().StringVar(&a.lang, "lang", "", "override TYPEDSTRUCT_LANG (en, ja)")

	root.AddCommand(newConvertCmd(a), newValidateCmd(a), newStreamCmd(a), newSchemaCmd(a), newServeCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.lang != "" {
		cfg.Lang = a.lang
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	i18n.SetLanguage(cfg.Lang)
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).
		Level(cfg.Level()).
		With().Timestamp().Logger()
	return nil
}

// reportedError marks an error that has already been logged.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail logs err with its typedstruct code and returns it so the command exits
// non-zero.
func (a *app) fail(err error, msg string) error {
	ev := a.logger.Error().Err(err)
	if code := typedstruct.CodeOf(err); code != "" {
		ev = ev.Str("code", code)
	}
	if pe, ok := typedstruct.AsParseError(err); ok && pe.Line > 0 {
		ev = ev.Int("line", pe.Line).Int("column", pe.Column)
	}
	ev.Msg(msg)
	return &reportedError{err: err}
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
