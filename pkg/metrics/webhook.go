package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records the outcome of identity-provider webhook deliveries.
type WebhookMetrics struct {
	duration *prometheus.HistogramVec
	received *prometheus.CounterVec
	rejected *prometheus.CounterVec
	failed   *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_event_duration_seconds",
		Help:    "Duration of webhook event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_received",
		Help: "Webhook deliveries that passed verification, by event type.",
	}, []string{"event_type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_rejected",
		Help: "Webhook deliveries rejected at the boundary.",
	}, []string{"reason"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_failed",
		Help: "Verified webhook events whose handler returned an error.",
	}, []string{"event_type"})
	reg.MustRegister(duration, received, rejected, failed)
	return &WebhookMetrics{
		duration: duration,
		received: received,
		rejected: rejected,
		failed:   failed,
	}
}

// ObserveDuration records how long handling the event type took.
func (w *WebhookMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncReceived increments the received counter for the event type.
func (w *WebhookMetrics) IncReceived(eventType string) {
	if w == nil || w.received == nil {
		return
	}
	w.received.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncRejected increments the boundary-rejection counter for the given reason.
func (w *WebhookMetrics) IncRejected(reason string) {
	if w == nil || w.rejected == nil {
		return
	}
	w.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncFailed increments the handler-failure counter for the event type.
func (w *WebhookMetrics) IncFailed(eventType string) {
	if w == nil || w.failed == nil {
		return
	}
	w.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
