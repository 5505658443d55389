package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/matthewhand/hivepace/internal/channel"
	"github.com/matthewhand/hivepace/internal/config"
	"github.com/matthewhand/hivepace/internal/cron"
	"github.com/matthewhand/hivepace/internal/gateway"
	"github.com/matthewhand/hivepace/internal/history"
	"github.com/matthewhand/hivepace/internal/ingest"
	"github.com/matthewhand/hivepace/internal/pacing"
	"github.com/matthewhand/hivepace/pkg/message"
)

// services holds every constructed component in dependency order.
type services struct {
	logger     *slog.Logger
	registry   *prometheus.Registry
	store      *history.Store // nil when history.path is unset
	sched      *pacing.Scheduler
	dispatcher *channel.Dispatcher
	pipeline   *ingest.Pipeline
	cron       *cron.Scheduler
	gateway    *gateway.Gateway
	channels   []channel.Channel
}

// buildServices wires the full application from configuration: metrics
// registry, history store, delivery scheduler, channel dispatcher,
// ingest pipeline, cron jobs, and the HTTP gateway. Channels are
// registered with the dispatcher and given the pipeline inbox but not
// started; start and stop order belong to Run.
func buildServices(ctx context.Context, cfg *config.Config, logger *slog.Logger, chans []channel.Channel, responder ingest.Responder) (*services, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var store *history.Store
	if cfg.History.Path != "" {
		var err error
		store, err = history.Open(ctx, cfg.History.Path)
		if err != nil {
			return nil, err
		}
	}

	sched, err := pacing.NewScheduler(cfg.Pacing,
		pacing.WithLogger(logger.With("component", "pacing")),
		pacing.WithMetrics(pacing.NewMetrics(registry)),
	)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	dispatcher := channel.NewDispatcher(cfg.Channels.Chunk)

	pipeline, err := ingest.NewPipeline(cfg.Ingest, sched, dispatcher, store, responder,
		logger.With("component", "ingest"))
	if err != nil {
		sched.Close()
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	// The configured allow-list filters inbound traffic before it reaches
	// the pipeline. No entries means no filtering at this level; channels
	// may still carry their own lists.
	inbox := pipeline.Inbox()
	if len(cfg.Channels.AllowedUsers)+len(cfg.Channels.AllowedGroups) > 0 {
		allow := channel.NewAllowList(cfg.Channels.AllowedUsers, cfg.Channels.AllowedGroups)
		inner := inbox
		inbox = func(msg message.InboundMessage) error {
			if !allow.IsAllowed(msg) {
				return channel.ErrDenied
			}
			return inner(msg)
		}
	}

	for _, ch := range chans {
		if err := dispatcher.Register(ch); err != nil {
			sched.Close()
			if store != nil {
				_ = store.Close()
			}
			return nil, fmt.Errorf("app: registering channel %s: %w", ch.Name(), err)
		}
		ch.SetInbox(inbox)
		logger.Info("channel registered", "channel", ch.Name())
	}

	cronSched := cron.NewScheduler(logger.With("component", "cron"))
	if store != nil {
		if cfg.History.Retention > 0 {
			if err := cronSched.RegisterJob(&cron.HistoryRetentionJob{
				Store:  store,
				MaxAge: cfg.History.Retention,
				Logger: logger.With("component", "cron"),
			}); err != nil {
				sched.Close()
				_ = store.Close()
				return nil, err
			}
		}
		if err := cronSched.RegisterJob(&cron.StoreMaintenanceJob{
			Store:  store,
			Logger: logger.With("component", "cron"),
		}); err != nil {
			sched.Close()
			_ = store.Close()
			return nil, err
		}
	}

	var reader gateway.HistoryReader
	if store != nil {
		reader = store
	}
	gw := gateway.New(cfg.Gateway, logger.With("component", "gateway"),
		sched, reader, registry, dispatcher.Channels)

	return &services{
		logger:     logger,
		registry:   registry,
		store:      store,
		sched:      sched,
		dispatcher: dispatcher,
		pipeline:   pipeline,
		cron:       cronSched,
		gateway:    gw,
		channels:   chans,
	}, nil
}

// start brings up the outward-facing services: platform channels, cron
// jobs, and the HTTP gateway.
func (s *services) start(ctx context.Context) error {
	for _, ch := range s.channels {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("app: starting channel %s: %w", ch.Name(), err)
		}
	}

	if err := s.cron.Start(); err != nil {
		return err
	}

	if err := s.gateway.Validate(); err != nil {
		return err
	}
	return s.gateway.Start()
}

// stop shuts everything down in reverse dependency order: stop inbound
// traffic first, drain the pipeline and scheduler, then the supporting
// services, the store last.
func (s *services) stop(ctx context.Context) {
	for _, ch := range s.channels {
		if err := ch.Stop(ctx); err != nil {
			s.logger.Error("channel stop failed", "channel", ch.Name(), "error", err)
		}
	}

	if err := s.pipeline.Stop(ctx); err != nil {
		s.logger.Error("pipeline stop failed", "error", err)
	}

	s.sched.Close()

	if err := s.cron.Stop(ctx); err != nil {
		s.logger.Error("cron stop failed", "error", err)
	}

	if err := s.gateway.Stop(ctx); err != nil {
		s.logger.Error("gateway stop failed", "error", err)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("history close failed", "error", err)
		}
	}
}
