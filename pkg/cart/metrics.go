package cart

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK      = "ok"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

type metrics struct {
	writes  *prometheus.CounterVec
	resyncs prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Subsystem: "cart",
				Name:      "writes_total",
				Help:      "Cart write-through calls by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		resyncs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Subsystem: "cart",
				Name:      "resyncs_total",
				Help:      "Full cart reloads that replaced the local snapshot.",
			},
		),
	}
	if reg != nil {
		m.writes = register(reg, m.writes)
		m.resyncs = register(reg, m.resyncs)
	}
	return m
}

// register reuses an identical collector already registered by another
// cache, as happens with one registry shared by several browsing contexts.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) write(op Op, outcome string) {
	m.writes.WithLabelValues(string(op), outcome).Inc()
}

func (m *metrics) resync() {
	m.resyncs.Inc()
}
