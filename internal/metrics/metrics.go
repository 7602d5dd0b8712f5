// Package metrics exposes Prometheus collectors for the reservation flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "centralino"

var (
	flowOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flow_outcomes_total",
		Help:      "Finished wizard flows by flow and status.",
	}, []string{"flow", "status"})
	stepAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "step_attempts_total",
		Help:      "Wizard steps by name and result (found, skipped, failed).",
	}, []string{"step", "result"})
	flowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "flow_duration_seconds",
		Help:      "Wall time of a flow including browser start and teardown.",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 45, 60, 90},
	}, []string{"flow"})
	sessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_open",
		Help:      "Browser sessions currently open.",
	})
	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_rate_limited_total",
		Help:      "Webhook requests refused by the per-client rate limiter.",
	})
	journalPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_pruned_total",
		Help:      "Journal rows removed by the retention sweeper.",
	})
)

func RecordFlow(flow, status string, elapsed time.Duration) {
	flowOutcomes.WithLabelValues(flow, status).Inc()
	flowDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

// RecordStep counts one executor attempt.
func RecordStep(step string, found, optional bool) {
	result := "found"
	switch {
	case found:
	case optional:
		result = "skipped"
	default:
		result = "failed"
	}
	stepAttempts.WithLabelValues(step, result).Inc()
}

func SessionOpened() { sessionsOpen.Inc() }
func SessionClosed() { sessionsOpen.Dec() }

func RecordRateLimited() { rateLimited.Inc() }

func RecordPruned(n int64) {
	if n > 0 {
		journalPruned.Add(float64(n))
	}
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
