package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reoring/typedstruct/httpbind"
	"github.com/reoring/typedstruct/schemafile"
)

type serveOptions struct {
	schemas string
	addr    string
}

func newServeCmd(a *app) *cobra.Command {
	var o serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve validate and convert endpoints for a schema file",
		Long: `Serve an HTTP API over the schemas of a schema file:

  GET  /schemas            the schema file in canonical form
  POST /validate/{schema}  204 when the body (JSON or YAML) decodes
  POST /convert/{schema}   the decoded record, encoded per Accept`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.schemas, "schemas", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVar(&o.addr, "addr", ":8080", "listen address")
	_ = cmd.MarkFlagRequired("schemas")
	return cmd
}

func (a *app) serve(cmd *cobra.Command, o serveOptions) error {
	reg, err := schemafile.LoadFile(o.schemas)
	if err != nil {
		return a.fail(err, "load schemas")
	}
	srv := &http.Server{
		Addr:              o.addr,
		Handler:           httpbind.NewHandler(reg, a.cfg.UnmarshalOpt(), a.logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	a.logger.Info().Str("addr", o.addr).Int("schemas", len(reg.Schemas())).Msg("http server listening")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return a.fail(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return a.fail(err, "http server shutdown")
	}
	return nil
}
