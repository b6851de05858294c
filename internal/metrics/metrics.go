package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal counts project updates by platform and outcome (live, cached, or the fallback error type).
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wingman_updates_total",
		Help: "Total number of project updates served",
	}, []string{"platform", "outcome"})

	// NotificationsTotal counts digest deliveries by outcome.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wingman_notifications_total",
		Help: "Total number of digest notifications attempted",
	}, []string{"outcome"})

	DigestRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wingman_digest_run_duration_seconds",
		Help:    "Duration of the daily digest fan-out",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)
