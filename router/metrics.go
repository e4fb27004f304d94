package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for the lookup and generation counters.
const (
	resultMatch   = "match"
	resultNoMatch = "no_match"
	resultOK      = "ok"
	resultError   = "error"
)

// routerMetrics contains the Prometheus metrics for one Router instance.
type routerMetrics struct {
	lookups     *prometheus.CounterVec
	generations *prometheus.CounterVec
}

// newRouterMetrics registers the router's metrics on the given registerer.
func newRouterMetrics(reg prometheus.Registerer) *routerMetrics {
	factory := promauto.With(reg)

	return &routerMetrics{
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "routeset",
				Subsystem: "router",
				Name:      "lookups_total",
				Help:      "Total number of route lookups by result",
			},
			[]string{"result"},
		),
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "routeset",
				Subsystem: "router",
				Name:      "uri_generations_total",
				Help:      "Total number of URI generations by result",
			},
			[]string{"result"},
		),
	}
}

func (m *routerMetrics) recordLookup(matched bool) {
	if m == nil {
		return
	}
	if matched {
		m.lookups.WithLabelValues(resultMatch).Inc()
	} else {
		m.lookups.WithLabelValues(resultNoMatch).Inc()
	}
}

func (m *routerMetrics) recordGeneration(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.generations.WithLabelValues(resultError).Inc()
	} else {
		m.generations.WithLabelValues(resultOK).Inc()
	}
}
