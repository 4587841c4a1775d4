package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records webhook settlement outcomes.
type SettlementMetrics struct {
	duration           *prometheus.HistogramVec
	settled            *prometheus.CounterVec
	failed             *prometheus.CounterVec
	duplicates         *prometheus.CounterVec
	fulfillmentFailure *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of webhook settlement handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_success",
		Help: "Webhook events settled successfully.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failure",
		Help: "Webhook events whose settlement failed.",
	}, []string{"event_type"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_duplicate",
		Help: "Webhook events skipped as already settled.",
	}, []string{"event_type"})
	fulfillmentFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_failure",
		Help: "Paid orders whose fulfillment failed and need reconciliation.",
	}, []string{"product_type"})
	reg.MustRegister(duration, settled, failed, duplicates, fulfillmentFailure)
	return &SettlementMetrics{
		duration:           duration,
		settled:            settled,
		failed:             failed,
		duplicates:         duplicates,
		fulfillmentFailure: fulfillmentFailure,
	}
}

// ObserveDuration records how long settling the named event type took.
func (s *SettlementMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncSettled increments the success counter for the named event type.
func (s *SettlementMetrics) IncSettled(eventType string) {
	if s == nil || s.settled == nil {
		return
	}
	s.settled.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed increments the failure counter for the named event type.
func (s *SettlementMetrics) IncFailed(eventType string) {
	if s == nil || s.failed == nil {
		return
	}
	s.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDuplicate increments the duplicate counter for the named event type.
func (s *SettlementMetrics) IncDuplicate(eventType string) {
	if s == nil || s.duplicates == nil {
		return
	}
	s.duplicates.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFulfillmentFailure increments the reconciliation counter for the product type.
func (s *SettlementMetrics) IncFulfillmentFailure(productType string) {
	if s == nil || s.fulfillmentFailure == nil {
		return
	}
	s.fulfillmentFailure.WithLabelValues(normalizeLabel(productType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
