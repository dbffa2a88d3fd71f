// Package metrics exposes Prometheus instruments for booking and chat flows.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for booking creation.
type BookingMetrics struct {
	createdTotal  *prometheus.CounterVec
	conflictTotal prometheus.Counter
	createLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Total booking creation attempts",
		}, []string{"status"}),
		conflictTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "bookings",
			Name:      "slot_conflict_total",
			Help:      "Total booking attempts rejected because the slot was taken",
		}),
		createLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "bookings",
			Name:      "create_latency_seconds",
			Help:      "Latency of booking creation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.conflictTotal, m.createLatency)
	return m
}

func (m *BookingMetrics) ObserveCreated(status string) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictTotal.Inc()
}

func (m *BookingMetrics) ObserveCreateLatency(seconds float64) {
	if m == nil {
		return
	}
	m.createLatency.Observe(seconds)
}

// ChatMetrics exposes counters/histograms for workflow-engine turns.
type ChatMetrics struct {
	messagesTotal *prometheus.CounterVec
	turnLatency   prometheus.Histogram
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total chat turns processed by the workflow engine",
		}, []string{"step_type", "outcome"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one chat turn",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.turnLatency)
	return m
}

func (m *ChatMetrics) ObserveMessage(stepType, outcome string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(stepType, outcome).Inc()
}

func (m *ChatMetrics) ObserveTurnLatency(seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.Observe(seconds)
}
