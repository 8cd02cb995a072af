// Package metrics exposes Prometheus counters for match writes and bracket
// synchronisation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	matchOperations *prometheus.CounterVec
	bracketSyncs    *prometheus.CounterVec
	counterClamps   prometheus.Counter
	statusUpdates   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		matchOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duelvault",
			Name:      "match_operations_total",
			Help:      "Match writes by operation and result.",
		}, []string{"operation", "result"}),
		bracketSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duelvault",
			Name:      "bracket_sync_total",
			Help:      "Bracket document synchronisations by result.",
		}, []string{"result"}),
		counterClamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duelvault",
			Name:      "deck_counter_clamps_total",
			Help:      "Deck counter decrements dropped because the counter was already zero.",
		}),
		statusUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duelvault",
			Name:      "tournament_status_updates_total",
			Help:      "Tournament statuses changed by the scheduler.",
		}),
	}
	m.registry.MustRegister(
		m.matchOperations,
		m.bracketSyncs,
		m.counterClamps,
		m.statusUpdates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MatchOperation counts one match write. A nil receiver is a no-op so
// services can run without metrics.
func (m *Metrics) MatchOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.matchOperations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) BracketSync(result string) {
	if m == nil {
		return
	}
	m.bracketSyncs.WithLabelValues(result).Inc()
}

func (m *Metrics) CounterClamped() {
	if m == nil {
		return
	}
	m.counterClamps.Inc()
}

func (m *Metrics) StatusUpdated(n int) {
	if m == nil {
		return
	}
	m.statusUpdates.Add(float64(n))
}
