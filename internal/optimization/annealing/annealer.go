// Package annealing implements a problem-agnostic simulated-annealing
// local search over optimization.Problem.
package annealing

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/copyleftdev/orbitplan/internal/optimization"
)

// Step describes one iteration of the search loop.
type Step struct {
	Iteration   int
	Temperature float64
	Score       float64
	BestScore   float64
	Accepted    bool
}

// Observer receives a Step after every iteration. It runs on the search
// goroutine and must be fast.
type Observer func(Step)

// Option configures an Annealer.
type Option[S any, M any] func(*Annealer[S, M])

// WithObserver installs a per-iteration callback.
func WithObserver[S any, M any](obs Observer) Option[S, M] {
	return func(a *Annealer[S, M]) {
		a.observer = obs
	}
}

// WithClock overrides the clock used for the time limit and duration.
func WithClock[S any, M any](now func() time.Time) Option[S, M] {
	return func(a *Annealer[S, M]) {
		a.now = now
	}
}

// Annealer runs simulated annealing for one problem and schedule.
type Annealer[S any, M any] struct {
	problem  optimization.Problem[S, M]
	schedule optimization.Schedule
	observer Observer
	now      func() time.Time
}

// NewAnnealer validates the schedule and returns an annealer for problem.
func NewAnnealer[S any, M any](problem optimization.Problem[S, M], schedule optimization.Schedule, opts ...Option[S, M]) (*Annealer[S, M], error) {
	if problem == nil {
		return nil, optimization.Invariantf(optimization.ErrEmptySearchSpace, "problem is required").
			WithOperation("NewAnnealer").WithComponent("annealing")
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if schedule.Cooling == "" {
		schedule.Cooling = optimization.GeometricCooling
	}

	a := &Annealer[S, M]{
		problem:  problem,
		schedule: schedule,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Schedule returns the validated schedule.
func (a *Annealer[S, M]) Schedule() optimization.Schedule {
	return a.schedule
}

// Optimize runs the search loop to completion and returns the best state
// seen. The run is deterministic for a given rng seed unless it is cut
// short by ctx or the schedule's time limit, in which case the best state
// found so far is returned with Stopped set.
func (a *Annealer[S, M]) Optimize(ctx context.Context, rng *rand.Rand) *optimization.Result[S] {
	start := a.now()
	var deadline time.Time
	if a.schedule.TimeLimit > 0 {
		deadline = start.Add(a.schedule.TimeLimit)
	}

	current := a.problem.InitState(rng)
	currentScore := a.problem.Eval(current)

	res := &optimization.Result[S]{
		BestState:    a.problem.Clone(current),
		BestScore:    currentScore,
		InitialScore: currentScore,
	}

	n := a.schedule.Iterations
	for i := 0; i < n; i++ {
		if a.shouldStop(ctx, deadline) {
			res.Stopped = true
			break
		}

		progress := float64(i) / float64(n)
		temp := a.schedule.Temperature(progress)

		move := a.problem.Neighbour(current, progress, rng)
		a.problem.Apply(current, move)
		newScore := a.problem.Eval(current)

		accepted := accept(newScore-currentScore, temp, rng)
		if accepted {
			currentScore = newScore
			res.Accepted++
			if newScore < res.BestScore {
				res.BestScore = newScore
				res.BestState = a.problem.Clone(current)
				res.Improved++
			}
		} else {
			a.problem.Unapply(current, move)
		}
		res.Iterations++

		if a.observer != nil {
			a.observer(Step{
				Iteration:   i,
				Temperature: temp,
				Score:       currentScore,
				BestScore:   res.BestScore,
				Accepted:    accepted,
			})
		}
	}

	res.Duration = a.now().Sub(start)
	return res
}

func (a *Annealer[S, M]) shouldStop(ctx context.Context, deadline time.Time) bool {
	select {
	case <-ctx.Done():
		return true
	default:
	}
	return !deadline.IsZero() && !a.now().Before(deadline)
}

// accept applies the Metropolis criterion. rng is only consumed for
// worsening moves.
func accept(delta, temp float64, rng *rand.Rand) bool {
	if delta <= 0 {
		return true
	}
	return rng.Float64() < math.Exp(-delta/temp)
}
