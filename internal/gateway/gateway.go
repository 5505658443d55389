// Package gateway exposes the HTTP admin surface: health and status
// probes, Prometheus metrics, and read-only conversation inspection.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/matthewhand/hivepace/internal/history"
	"github.com/prometheus/client_golang/prometheus"
)

// StatusSource reports live delivery-engine state.
type StatusSource interface {
	// ActiveChannels is the number of channels with a delivery in flight.
	ActiveChannels() int
	// TrackedChannels is the number of channels with recorded activity.
	TrackedChannels() int
}

// HistoryReader is the read-only subset of the history store used by the
// conversation endpoints.
type HistoryReader interface {
	Conversations(ctx context.Context) ([]string, error)
	Recent(ctx context.Context, conversation string, n int) ([]history.Entry, error)
	Count(ctx context.Context, conversation string) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Gateway is the HTTP admin server. All dependencies are injected;
// status and store may be nil, in which case the corresponding
// endpoints degrade gracefully.
type Gateway struct {
	cfg       Config
	logger    *slog.Logger
	status    StatusSource
	store     HistoryReader
	gatherer  prometheus.Gatherer
	channels  func() []string
	server    *http.Server
	startedAt time.Time
}

// New creates a Gateway. channels reports the registered platform
// channel names for /status; pass nil to omit them.
func New(cfg Config, logger *slog.Logger, status StatusSource, store HistoryReader, gatherer prometheus.Gatherer, channels func() []string) *Gateway {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg:      cfg,
		logger:   logger,
		status:   status,
		store:    store,
		gatherer: gatherer,
		channels: channels,
	}
}

// Validate checks the bind address before Start.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.cfg.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.cfg.Bind)
	}
	return nil
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.cfg.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.cfg.ReadTimeout,
		WriteTimeout: g.cfg.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.cfg.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.cfg.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully with the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.cfg.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
