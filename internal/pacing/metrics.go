package pacing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates delivery counters. The gateway exposes them on its
// /metrics endpoint via the registry they were built against.
type Metrics struct {
	SegmentsSent        prometheus.Counter
	DeliveriesDone      prometheus.Counter
	DeliveriesFailed    prometheus.Counter
	DeliveriesCancelled prometheus.Counter
	TypingSignals       prometheus.Counter
	DelaySeconds        prometheus.Histogram
	ActiveWorkers       prometheus.Gauge
}

// NewMetrics creates and registers the engine's collectors against reg.
// A nil reg gets a private registry, which keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		SegmentsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hivepace",
			Subsystem: "delivery",
			Name:      "segments_sent_total",
			Help:      "Reply segments successfully handed to a channel.",
		}),
		DeliveriesDone: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hivepace",
			Subsystem: "delivery",
			Name:      "jobs_completed_total",
			Help:      "Delivery jobs that sent every segment.",
		}),
		DeliveriesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hivepace",
			Subsystem: "delivery",
			Name:      "jobs_failed_total",
			Help:      "Delivery jobs halted by a send failure.",
		}),
		DeliveriesCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hivepace",
			Subsystem: "delivery",
			Name:      "jobs_cancelled_total",
			Help:      "Delivery jobs cancelled before completion.",
		}),
		TypingSignals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hivepace",
			Subsystem: "delivery",
			Name:      "typing_signals_total",
			Help:      "Typing indicators emitted while delays were pending.",
		}),
		DelaySeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hivepace",
			Subsystem: "delivery",
			Name:      "segment_delay_seconds",
			Help:      "Computed pre-send pause per segment.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hivepace",
			Subsystem: "delivery",
			Name:      "active_channels",
			Help:      "Channels with a delivery worker currently running.",
		}),
	}
}
