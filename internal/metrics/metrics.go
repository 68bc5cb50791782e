// Package metrics instruments the replay harness with Prometheus
// collectors. Like internal/telemetry, this never touches the engine
// core: metrics are recorded by the harness around each Limit/Cancel
// call, not inside them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles the counters and histogram the harness updates
// for each replayed order, cancel and execution report.
type Collectors struct {
	OrdersSubmitted prometheus.Counter
	TradesExecuted  prometheus.Counter
	SharesTraded    prometheus.Counter
	OrdersCancelled prometheus.Counter
	LimitLatency    prometheus.Histogram
}

// New registers and returns a fresh set of collectors against reg. A
// *prometheus.Registry (rather than the global default) lets
// cmd/matchbench run multiple replay rounds without collector
// re-registration panics.
func New(reg *prometheus.Registry) *Collectors {
	c := &Collectors{
		OrdersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_submitted_total",
			Help:      "Total number of limit orders submitted to the engine.",
		}),
		TradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "trades_executed_total",
			Help:      "Total number of matched trades (one execution pair each).",
		}),
		SharesTraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "shares_traded_total",
			Help:      "Total shares crossed across all trades.",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_cancelled_total",
			Help:      "Total number of cancel requests submitted to the engine, including no-op cancels.",
		}),
		LimitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchcore",
			Name:      "limit_call_seconds",
			Help:      "Latency of a single Engine.Limit call.",
			Buckets:   prometheus.ExponentialBuckets(1e-9, 4, 16),
		}),
	}

	reg.MustRegister(c.OrdersSubmitted, c.TradesExecuted, c.SharesTraded, c.OrdersCancelled, c.LimitLatency)
	return c
}
