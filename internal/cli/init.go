// Package cli provides common CLI initialization utilities shared by
// cmd/budget, cmd/budget-worker and cmd/budget-export.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budget/internal/backend"
	"budget/internal/budget"
	"budget/internal/config"
	applog "budget/internal/log"
)

// ShutdownTimeout bounds graceful shutdown of every binary.
const ShutdownTimeout = 30 * time.Second

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from level and format and sets it as
// the slog default.
func SetupLogger(level, format string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Format = format
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// Bootstrap loads .env and the configuration, sets up logging and validates
// the configuration. It exits the process when validation fails.
func Bootstrap(binary string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "binary", binary, applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Starting "+binary, applog.FieldBackend, cfg.DataBackend, applog.FieldSlotKey, cfg.StateKey)
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// OpenSlot builds the configured state slot. Callers must Close the result.
func OpenSlot(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// OpenSharedSlot is OpenSlot for processes that read state written by another
// process, which rules out the memory backend.
func OpenSharedSlot(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.BackendResult, error) {
	if backend.BackendType(cfg.DataBackend) == backend.MemoryBackend {
		return nil, errors.New("the memory backend is private to one process; use DATA_BACKEND=file or sqlite")
	}
	return OpenSlot(ctx, cfg, logger)
}

// OpenStore opens the budget store on the configured slot. The returned
// close function ends the session and releases the slot.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*budget.Store, func(), error) {
	res, err := OpenSlot(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := budget.Open(ctx, res.Slot, budget.WithKey(cfg.StateKey), budget.WithLogger(logger))
	if err != nil {
		_ = res.Close()
		return nil, nil, err
	}

	return store, func() {
		store.Close()
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close state backend", applog.FieldError, err)
		}
	}, nil
}
