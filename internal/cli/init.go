// Package cli provides common process bootstrap utilities shared by the
// shoplist commands: logging, environment, configuration, store wiring
// and shutdown signalling.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shoplist/internal/backend"
	"shoplist/internal/config"
	applog "shoplist/internal/log"
	"shoplist/internal/store"
)

// SetupLogger initializes structured logging at the given level writing to w.
// The logger also becomes the slog default.
func SetupLogger(level string, w io.Writer) (*applog.Logger, error) {
	lvl, err := applog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := applog.New(applog.Config{Level: lvl, Output: w, Component: applog.ComponentCLI})
	applog.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadConfig loads configuration from the environment and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenStore builds the configured persistence backend and the store on
// top of it. The returned cleanup releases the backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*store.Store, func() error, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	st := store.New(res.KV,
		store.WithLogger(logger),
		store.WithSaveTimeout(cfg.SaveTimeout),
	)
	return st, res.Close, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
