package adapter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the adapter's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	deliveries    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	registrations *prometheus.CounterVec
}

// NewMetrics registers the adapter collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eventhttp_deliveries_total",
			Help: "Total number of consumed integration event deliveries by result",
		}, []string{"event", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventhttp_delivery_duration_seconds",
			Help:    "Time spent delivering an integration event to local handlers",
			Buckets: prometheus.DefBuckets,
		}, []string{"event"}),
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eventhttp_registrations_total",
			Help: "Total number of startup subscription registrations by mode and result",
		}, []string{"mode", "result"}),
	}
}

func (m *Metrics) observeDelivery(event string, err *DeliveryError, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = string(err.Kind)
		// Unknown names come from the request; keep label cardinality bounded.
		if err.Kind == KindUnresolvedType {
			event = "unknown"
		}
	}
	m.deliveries.WithLabelValues(event, result).Inc()
	m.duration.WithLabelValues(event).Observe(d.Seconds())
}

func (m *Metrics) observeRegistration(mode string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.registrations.WithLabelValues(mode, result).Inc()
}
