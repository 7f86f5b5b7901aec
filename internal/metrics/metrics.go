// Package metrics exposes Prometheus counters, gauges and histograms for
// job outcomes, dispatch latency, and sink connection state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptivd_jobs_total",
		Help: "Total insertion jobs handled, labeled by terminal outcome.",
	}, []string{"outcome"})

	DispatchLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptivd_dispatch_latency_seconds",
		Help:    "Time from dispatch submission to terminal outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	SinkConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "promptivd_sink_connected",
		Help: "1 if a sink is currently registered, 0 otherwise.",
	})

	OutboundQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "promptivd_outbound_queue_depth",
		Help: "Current depth of the active sink's outbound frame queue.",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptivd_rate_limited_total",
		Help: "Total requests rejected by the per-client ingress rate limiter.",
	})

	AuditDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptivd_audit_dropped_total",
		Help: "Total audit records dropped because the writer queue was full.",
	})
)
