package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PublisherMetrics records outbox publish outcomes per event type.
type PublisherMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewPublisherMetrics registers the publisher metrics on the provided registerer.
func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_duration_seconds",
		Help:    "Duration of outbox event publishes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_success",
		Help: "Outbox events published successfully.",
	}, []string{"event_type"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failure",
		Help: "Outbox events that failed to publish.",
	}, []string{"event_type"})
	reg.MustRegister(duration, success, failure)
	return &PublisherMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the publish duration for the event type.
func (p *PublisherMetrics) ObserveDuration(eventType string, elapsed time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(eventType)).Observe(elapsed.Seconds())
}

// IncSuccess increments the success counter for the event type.
func (p *PublisherMetrics) IncSuccess(eventType string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailure increments the failure counter for the event type.
func (p *PublisherMetrics) IncFailure(eventType string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
