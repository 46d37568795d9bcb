// Package metrics exposes Prometheus collectors for trajectory planning.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orbitplan"

// Plan outcome label values.
const (
	OutcomeSurvived = "survived"
	OutcomeCrashed  = "crashed"
	OutcomeStopped  = "stopped"
)

// Metrics groups the planner's collectors.
type Metrics struct {
	plans        *prometheus.CounterVec
	iterations   prometheus.Counter
	accepted     prometheus.Counter
	bestScore    prometheus.Histogram
	planDuration prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Trajectory plans computed, by outcome of the best plan.",
		}, []string{"outcome"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annealing_iterations_total",
			Help:      "Annealing iterations executed across all restarts.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annealing_accepted_moves_total",
			Help:      "Moves accepted by the best restart of each plan.",
		}),
		bestScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_best_score",
			Help:      "Score of the best plan found. Scores of 1000 and above are crashes.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 500, 1000, 1010, 1100, 1300},
		}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Wall-clock time spent computing a plan.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.plans, m.iterations, m.accepted, m.bestScore, m.planDuration)
	}
	return m
}

// ObservePlan records one completed plan.
func (m *Metrics) ObservePlan(outcome string, score float64, iterations, accepted int, d time.Duration) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(outcome).Inc()
	m.iterations.Add(float64(iterations))
	m.accepted.Add(float64(accepted))
	m.bestScore.Observe(score)
	m.planDuration.Observe(d.Seconds())
}
