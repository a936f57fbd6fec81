package observability

import (
	"context"

	"github.com/aretw0/gashu/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by engine hooks.
type Metrics struct {
	turns         *prometheus.CounterVec
	stageSteps    *prometheus.CounterVec
	cascadeDepth  prometheus.Histogram
	collabCalls   *prometheus.CounterVec
	collabLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gashu_turns_total",
				Help: "Total number of turns by outcome",
			},
			[]string{"outcome"},
		),
		stageSteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gashu_stage_steps_total",
				Help: "Total number of handler steps by state",
			},
			[]string{"state", "sub_state"},
		),
		cascadeDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gashu_cascade_depth",
				Help:    "Stage handoffs performed within one turn",
				Buckets: []float64{0, 1, 2, 3, 4},
			},
		),
		collabCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gashu_collaborator_calls_total",
				Help: "Total number of collaborator calls",
			},
			[]string{"collaborator", "outcome"},
		),
		collabLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gashu_collaborator_duration_seconds",
				Help:    "Duration of collaborator calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collaborator"},
		),
	}
	for _, c := range []prometheus.Collector{m.turns, m.stageSteps, m.cascadeDepth, m.collabCalls, m.collabLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			m.stageSteps.WithLabelValues(string(e.State), string(e.SubState)).Inc()
		},
		OnCollaboratorReturn: func(_ context.Context, e *domain.CollaboratorEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.collabCalls.WithLabelValues(e.Collaborator, outcome).Inc()
			m.collabLatency.WithLabelValues(e.Collaborator).Observe(e.Duration.Seconds())
		},
		OnTurnComplete: func(_ context.Context, e *domain.TurnEvent) {
			m.turns.WithLabelValues(string(e.Outcome)).Inc()
			m.cascadeDepth.Observe(float64(e.Handoffs))
		},
	}
}
