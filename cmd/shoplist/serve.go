package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shoplist/internal/cli"
	apphttp "shoplist/internal/http"
	applog "shoplist/internal/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = "8081"
				if a.cfg != nil {
					port = a.cfg.Port
				}
			}
			ctx, stop := cli.ShutdownContext(cmd.Context())
			defer stop()
			return a.serve(ctx, ":"+port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default PORT)")
	return cmd
}

// serve runs the API until ctx is cancelled, then drains in-flight requests.
func (a *app) serve(ctx context.Context, addr string) error {
	logger := a.logger.WithComponent(applog.ComponentApp)
	srv := apphttp.NewServer(addr, a.store, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting shoplist server", "addr", addr, applog.FieldOperation, applog.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
			return err
		}
		logger.Info("Server stopped gracefully")
		return nil
	})
	return g.Wait()
}
