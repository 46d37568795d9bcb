// Package planner turns a physics snapshot into a thrust plan by running
// simulated annealing over the trajectory problem.
package planner

import (
	"context"
	"time"

	"github.com/copyleftdev/orbitplan/internal/config"
	"github.com/copyleftdev/orbitplan/internal/logging"
	"github.com/copyleftdev/orbitplan/internal/metrics"
	"github.com/copyleftdev/orbitplan/internal/optimization"
	"github.com/copyleftdev/orbitplan/internal/optimization/annealing"
	"github.com/copyleftdev/orbitplan/internal/trajectory"
)

// progressLogPoints is how many debug progress lines one run emits.
const progressLogPoints = 10

// Planner computes thrust plans. It is safe for concurrent use.
type Planner struct {
	schedule   optimization.Schedule
	restarts   annealing.RestartConfig
	horizonCap int
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// New builds a planner from the annealing and planning configuration.
func New(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*Planner, error) {
	schedule, err := cfg.Schedule()
	if err != nil {
		return nil, err
	}
	if cfg.Planning.HorizonCap < 1 {
		return nil, optimization.Invariantf(optimization.ErrEmptySearchSpace,
			"horizon cap must be at least 1, got %d", cfg.Planning.HorizonCap).WithOperation("planner.New")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Planner{
		schedule:   schedule,
		restarts:   cfg.Restarts(),
		horizonCap: cfg.Planning.HorizonCap,
		logger:     logger.WithField("component", "planner"),
		metrics:    m,
	}, nil
}

// WithSeed returns a copy of the planner that uses seed as the base seed.
func (p *Planner) WithSeed(seed int64) *Planner {
	cp := *p
	cp.restarts.Seed = seed
	return &cp
}

// WithIterations returns a copy of the planner with a different iteration
// budget per restart.
func (p *Planner) WithIterations(n int) (*Planner, error) {
	cp := *p
	cp.schedule.Iterations = n
	if err := cp.schedule.Validate(); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Baseline is the best single thrust followed by coasting.
type Baseline struct {
	Thrust       trajectory.Vec `json:"thrust"`
	SurvivalTime int            `json:"survival_time"`
}

// Result is a computed plan.
type Result struct {
	// Accelerations is the best plan with trailing zero thrusts removed.
	Accelerations trajectory.Plan    `json:"accelerations"`
	Score         float64            `json:"score"`
	Horizon       int                `json:"horizon"`
	Outcome       trajectory.Outcome `json:"outcome"`
	Baseline      Baseline           `json:"baseline"`

	Iterations  int     `json:"iterations"`
	Restarts    int     `json:"restarts"`
	BestRestart int     `json:"best_restart"`
	Seed        int64   `json:"seed"`
	MeanScore   float64 `json:"mean_score"`
	StdDevScore float64 `json:"stddev_score"`
	Stopped     bool    `json:"stopped"`

	Duration time.Duration `json:"duration_ns"`
}

// Survived reports whether the plan keeps the craft safe until the end of
// the match.
func (r *Result) Survived() bool {
	return !r.Outcome.Crashed
}

// Plan searches for the best thrust sequence from snap. Errors are only
// returned for invalid snapshots; a short budget yields a worse plan, not
// an error.
func (p *Planner) Plan(ctx context.Context, snap trajectory.Snapshot) (*Result, error) {
	start := time.Now()

	problem, err := trajectory.NewProblem(snap, p.horizonCap)
	if err != nil {
		return nil, err
	}

	log := p.logger.WithFields(map[string]interface{}{
		"horizon":         problem.Horizon(),
		"turns_remaining": snap.TurnsRemaining,
	})

	var opts []annealing.Option[trajectory.Plan, trajectory.Move]
	if log.Enabled(logging.DebugLevel) {
		opts = append(opts, annealing.WithObserver[trajectory.Plan, trajectory.Move](progressLogger(log, p.schedule.Iterations)))
	}
	annealer, err := annealing.NewAnnealer[trajectory.Plan, trajectory.Move](problem, p.schedule, opts...)
	if err != nil {
		return nil, err
	}

	runs := annealing.RunRestarts(ctx, annealer, p.restarts)
	best := runs.Best

	thrust, survival := trajectory.BestSingleThrust(snap)
	res := &Result{
		Accelerations: best.BestState.Clone().Trim(),
		Score:         best.BestScore,
		Horizon:       problem.Horizon(),
		Outcome:       trajectory.Simulate(snap, best.BestState),
		Baseline:      Baseline{Thrust: thrust, SurvivalTime: survival},
		Iterations:    runs.Iterations,
		Restarts:      len(runs.Scores),
		BestRestart:   runs.BestIndex,
		Seed:          runs.Seed,
		MeanScore:     runs.Mean,
		StdDevScore:   runs.StdDev,
		Stopped:       runs.Stopped,
	}
	res.Duration = time.Since(start)

	outcome := metrics.OutcomeSurvived
	switch {
	case res.Stopped:
		outcome = metrics.OutcomeStopped
	case !res.Survived():
		outcome = metrics.OutcomeCrashed
	}
	p.metrics.ObservePlan(outcome, res.Score, res.Iterations, best.Accepted, res.Duration)

	fields := map[string]interface{}{
		"score":            res.Score,
		"plan_length":      len(res.Accelerations),
		"completed_steps":  res.Outcome.CompletedSteps,
		"restarts":         res.Restarts,
		"best_restart":     res.BestRestart,
		"seed":             res.Seed,
		"iterations":       res.Iterations,
		"baseline_thrust":  thrust.String(),
		"baseline_survive": survival,
		"duration":         res.Duration.String(),
	}
	if res.Stopped {
		log.Warn("Plan search stopped early", fields)
	} else {
		log.Info("Plan computed", fields)
	}
	return res, nil
}

func progressLogger(log *logging.Logger, iterations int) annealing.Observer {
	every := iterations / progressLogPoints
	if every < 1 {
		every = 1
	}
	return func(s annealing.Step) {
		if s.Iteration%every != 0 {
			return
		}
		log.Debug("Annealing progress", map[string]interface{}{
			"iteration":   s.Iteration,
			"temperature": s.Temperature,
			"score":       s.Score,
			"best_score":  s.BestScore,
		})
	}
}
