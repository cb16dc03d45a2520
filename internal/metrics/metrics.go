// Package metrics exposes Prometheus counters for the watcher.
package metrics

import (
	"sync"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the watcher's Prometheus collectors.
//
// Metrics:
//   - shortlist_messages_processed_total{outcome} - processed, skipped or untrusted
//   - shortlist_verdicts_total{verdict} - fused verdict per processed message
//   - shortlist_attachments_scanned_total{status} - parsed, unsupported or error
//   - shortlist_iteration_errors_total - failed poll iterations
//   - shortlist_side_effect_failures_total{effect} - calendar or notify failures
//   - shortlist_last_iteration_timestamp_seconds - time of the last finished iteration
type Metrics struct {
	MessagesProcessed  *prometheus.CounterVec
	Verdicts           *prometheus.CounterVec
	AttachmentsScanned *prometheus.CounterVec
	IterationErrors    prometheus.Counter
	SideEffectFailures *prometheus.CounterVec
	LastIteration      prometheus.Gauge
}

// NewMetrics registers the collectors with the default registry once and
// returns the shared instance on every call.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			MessagesProcessed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shortlist_messages_processed_total",
					Help: "Messages handled by the pipeline by outcome",
				},
				[]string{"outcome"},
			),
			Verdicts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shortlist_verdicts_total",
					Help: "Fused verdicts of processed messages",
				},
				[]string{"verdict"},
			),
			AttachmentsScanned: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shortlist_attachments_scanned_total",
					Help: "Attachments scanned by status",
				},
				[]string{"status"},
			),
			IterationErrors: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "shortlist_iteration_errors_total",
					Help: "Poll iterations that failed and triggered backoff",
				},
			),
			SideEffectFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shortlist_side_effect_failures_total",
					Help: "Failed calendar or notification side effects",
				},
				[]string{"effect"},
			),
			LastIteration: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "shortlist_last_iteration_timestamp_seconds",
					Help: "Unix time of the last completed poll iteration",
				},
			),
		}
	})
	return globalMetrics
}

// ObserveVerdict counts a fused verdict
func (m *Metrics) ObserveVerdict(v core.Verdict) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(string(v)).Inc()
}

// ObserveOutcome counts a message outcome
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.MessagesProcessed.WithLabelValues(outcome).Inc()
}

// ObserveAttachments counts every attachment of a report by status
func (m *Metrics) ObserveAttachments(r *core.AttachmentReport) {
	if m == nil || r == nil {
		return
	}
	for _, res := range r.Results {
		m.AttachmentsScanned.WithLabelValues(string(res.Status)).Inc()
	}
}

// ObserveSideEffectFailure counts a failed side effect
func (m *Metrics) ObserveSideEffectFailure(effect string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(effect).Inc()
}

// ObserveIteration records the end of a poll iteration
func (m *Metrics) ObserveIteration(err error, at time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.IterationErrors.Inc()
	}
	m.LastIteration.Set(float64(at.Unix()))
}
