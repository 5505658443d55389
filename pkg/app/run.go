// Package app provides the shared entry point for the hivepace binary:
// configuration loading, service wiring, and the signal-driven run loop.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/matthewhand/hivepace/internal/channel"
	"github.com/matthewhand/hivepace/internal/config"
	"github.com/matthewhand/hivepace/internal/history"
	"github.com/matthewhand/hivepace/internal/ingest"
	"github.com/matthewhand/hivepace/internal/redact"
	"github.com/matthewhand/hivepace/pkg/message"
)

// stopTimeout bounds graceful shutdown of all services.
const stopTimeout = 30 * time.Second

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// Channels are the platform channels to register with the
	// dispatcher. Embedding programs provide their own implementations.
	Channels []channel.Channel

	// Responder generates replies for inbound messages. When nil a
	// built-in echo responder is used so the pacing engine can be
	// exercised without an upstream reply source.
	Responder ingest.Responder
}

// Run loads configuration, wires and starts all services, and blocks
// until SIGINT or SIGTERM, then shuts down in reverse order.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := buildLogger(cfg.Log, cfg.Gateway.Auth.BearerToken, cfg.Gateway.Auth.BasicPass)

	responder := params.Responder
	if responder == nil {
		logger.Warn("no responder configured, using built-in echo responder")
		responder = echoResponder()
	}

	ctx := context.Background()
	svcs, err := buildServices(ctx, cfg, logger, params.Channels, responder)
	if err != nil {
		return err
	}

	if err := svcs.start(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		defer cancel()
		svcs.stop(stopCtx)
		return err
	}

	logger.Info("hivepace started",
		"version", params.Version,
		"config", cfgPath,
		"channels", len(params.Channels),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	svcs.stop(stopCtx)

	logger.Info("shutdown complete")
	return nil
}

// buildLogger constructs slog output per the log config. Any secrets
// passed in are redacted from every log record.
func buildLogger(cfg config.LogConfig, secrets ...string) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	redactor := redact.New()
	for _, s := range secrets {
		redactor.AddLiteral(s)
	}
	return slog.New(redact.NewHandler(handler, redactor))
}

// echoResponder replies with the inbound text unchanged.
func echoResponder() ingest.Responder {
	return ingest.ResponderFunc(func(_ context.Context, msg message.InboundMessage, _ []history.Entry) (string, error) {
		return msg.Text, nil
	})
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/hivepace/hivepace.yaml, then
// ~/.config/hivepace/hivepace.yaml, then ./hivepace.yaml.
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "hivepace", "hivepace.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "hivepace", "hivepace.yaml"))
	}

	candidates = append(candidates, "hivepace.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/hivepace if set, otherwise ~/.local/share/hivepace.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "hivepace")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "hivepace")
}
