// Package cli provides the process bootstrap shared by the billpay binary:
// env file loading, logger setup, config validation and signal handling.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"billpay/internal/config"
	"billpay/internal/journal"
	"billpay/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default. Unknown levels fall back to info; Validate reports them.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	lc.Format = cfg.LogFormat

	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// OpenJournal opens the event journal when it is enabled. It returns nil
// without error when the journal is switched off.
func OpenJournal(cfg *config.Config, logger *log.Logger) (*journal.Journal, error) {
	if !cfg.JournalEnabled {
		logger.Info("Journal disabled")
		return nil, nil
	}
	j, err := journal.Open(cfg.JournalDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	logger.Info("Journal opened", "dsn", cfg.JournalDSN)
	return j, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
