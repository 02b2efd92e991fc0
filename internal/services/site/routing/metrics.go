package routing

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts routing decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the routing collectors on reg. Registering twice on
// the same registry reuses the existing collector.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitegate",
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Routing decisions by action and rule.",
		},
		[]string{"action", "rule"},
	)
	if reg != nil {
		if err := reg.Register(decisions); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, err
			}
			decisions = existing
		}
	}
	return &Metrics{decisions: decisions}, nil
}

func (m *Metrics) observe(d Decision) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(d.Action.String(), d.Rule).Inc()
}
