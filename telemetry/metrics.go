package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons recorded on crewtel_events_dropped_total.
const (
	reasonNotReady  = "not_ready"
	reasonOptOut    = "opt_out"
	reasonNoSpan    = "no_span"
	reasonInvalid   = "invalid_subject"
	reasonAttribute = "attribute"
	reasonPanic     = "panic"
)

// Metrics counts reported and dropped events. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	events  *prometheus.CounterVec
	dropped *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// builds unregistered collectors.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Telemetry events recorded, by strategy and event kind",
			},
			[]string{"strategy", "event"},
		),
		dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_dropped_total",
				Help:      "Telemetry events or attributes dropped, by strategy, event kind and reason",
			},
			[]string{"strategy", "event", "reason"},
		),
	}
}

func (m *Metrics) recordEvent(strategy string, ev EventKind) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(strategy, string(ev)).Inc()
}

func (m *Metrics) recordDrop(strategy string, ev EventKind, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(strategy, string(ev), reason).Inc()
}
