// Package metrics exposes Prometheus metrics and a health endpoint for the
// watchlist engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the watchlist engine.
type Metrics struct {
	TicksTotal       prometheus.Counter
	FloorClampsTotal prometheus.Counter

	WatchlistOpsTotal *prometheus.CounterVec // labels: op=add|remove
	LoginsTotal       prometheus.Counter
	CatalogErrors     prometheus.Counter
	MalformedPayloads prometheus.Counter

	ActiveSessions    prometheus.Gauge
	RunningSimulators prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_ticks_total",
			Help: "Total price-simulation ticks completed across all sessions",
		}),
		FloorClampsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_floor_clamps_total",
			Help: "Simulated prices held at the floor instead of going non-positive",
		}),
		WatchlistOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_ops_total",
			Help: "Watchlist mutations by operation",
		}, []string{"op"}),
		LoginsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_logins_total",
			Help: "Successful logins",
		}),
		CatalogErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_catalog_errors_total",
			Help: "Failed instrument catalog fetches",
		}),
		MalformedPayloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_malformed_payloads_total",
			Help: "Rejected malformed request bodies",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchlist_active_sessions",
			Help: "Live sessions",
		}),
		RunningSimulators: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchlist_running_simulators",
			Help: "Sessions with an active tick loop",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.FloorClampsTotal,
		m.WatchlistOpsTotal,
		m.LoginsTotal,
		m.CatalogErrors,
		m.MalformedPayloads,
		m.ActiveSessions,
		m.RunningSimulators,
	)
	return m
}
