package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/srag/pkg/domain"
)

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	NodeVisits   *prometheus.CounterVec
	Routes       *prometheus.CounterVec
	Failures     *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srag_node_visits_total",
				Help: "Total number of node executions",
			},
			[]string{"node_id"},
		),
		Routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srag_route_decisions_total",
				Help: "Routing directives issued by the router",
			},
			[]string{"target"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srag_failures_total",
				Help: "Pipelines halted with a failure message",
			},
			[]string{"node_id", "kind"},
		),
		NodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "srag_node_duration_seconds",
				Help:    "Duration of node executions",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"node_id"},
		),
	}

	for _, c := range []prometheus.Collector{m.NodeVisits, m.Routes, m.Failures, m.NodeDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeDuration.WithLabelValues(e.NodeID).Observe(e.Duration.Seconds())
			if e.Next != "" {
				m.Routes.WithLabelValues(e.Next).Inc()
			}
			if e.Failure != domain.FailureNone {
				m.Failures.WithLabelValues(e.NodeID, string(e.Failure)).Inc()
			}
		},
	}
}
