package dashboard

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	events        *prometheus.CounterVec
	conversations prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	return &metrics{
		events: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quote_desk_dashboard_events_total",
				Help: "Change events handled by the dashboard aggregator, by outcome.",
			},
			[]string{"outcome"},
		)),
		conversations: register(reg, prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quote_desk_dashboard_conversations",
				Help: "Conversations currently held by the dashboard aggregator.",
			},
		)),
	}
}

// register returns the collector already registered under the same
// descriptor, if any.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *metrics) observe(outcome Outcome) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(outcome)).Inc()
}

func (m *metrics) setConversations(n int) {
	if m == nil {
		return
	}
	m.conversations.Set(float64(n))
}
