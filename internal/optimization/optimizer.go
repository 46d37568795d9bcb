package optimization

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

// Problem is the capability set a local-search optimizer needs from a
// domain. S is the mutable search state and M a reversible single edit.
//
// Implementations must not keep mutable state of their own: everything a
// search mutates lives in S, so one Problem can serve several concurrent
// runs as long as each run owns its own state and random source.
type Problem[S any, M any] interface {
	// InitState returns a fresh random state.
	InitState(rng *rand.Rand) S

	// Eval scores a state. Lower is better. Eval never fails and must be a
	// pure function of the state.
	Eval(state S) float64

	// Neighbour proposes a random move from state. progress is the
	// fraction of the iteration budget already spent, in [0, 1).
	Neighbour(state S, progress float64, rng *rand.Rand) M

	// Apply performs move on state in place.
	Apply(state S, move M)

	// Unapply restores state to exactly its value before Apply(state, move).
	Unapply(state S, move M)

	// Clone returns an independent copy of state.
	Clone(state S) S
}

// Cooling selects the temperature curve between the start and end
// temperatures.
type Cooling string

const (
	// GeometricCooling interpolates t0*(t1/t0)^p.
	GeometricCooling Cooling = "geometric"
	// LinearCooling interpolates t0 + (t1-t0)*p.
	LinearCooling Cooling = "linear"
)

// ParseCooling converts a configuration string to a Cooling. An empty
// string selects geometric cooling.
func ParseCooling(s string) (Cooling, error) {
	switch Cooling(strings.ToLower(strings.TrimSpace(s))) {
	case "", GeometricCooling:
		return GeometricCooling, nil
	case LinearCooling:
		return LinearCooling, nil
	default:
		return "", Invariantf(ErrInvalidSchedule, "unknown cooling curve %q", s).
			WithOperation("ParseCooling")
	}
}

// Schedule configures one annealing run.
type Schedule struct {
	// StartTemperature is the temperature at progress 0.
	StartTemperature float64
	// EndTemperature is the temperature approached at progress 1.
	EndTemperature float64
	// Iterations is the number of proposed moves.
	Iterations int
	// Cooling is the interpolation curve. Empty means geometric.
	Cooling Cooling
	// TimeLimit bounds the wall-clock time of a run. Zero disables it.
	TimeLimit time.Duration
}

// Validate checks the schedule invariants.
func (s Schedule) Validate() error {
	op := "Schedule.Validate"
	if !(s.StartTemperature > 0) || math.IsInf(s.StartTemperature, 0) {
		return Invariantf(ErrInvalidSchedule, "start temperature must be positive and finite, got %v", s.StartTemperature).WithOperation(op)
	}
	if !(s.EndTemperature > 0) || math.IsInf(s.EndTemperature, 0) {
		return Invariantf(ErrInvalidSchedule, "end temperature must be positive and finite, got %v", s.EndTemperature).WithOperation(op)
	}
	if s.Iterations < 1 {
		return Invariantf(ErrInvalidSchedule, "iterations must be at least 1, got %d", s.Iterations).WithOperation(op)
	}
	if s.TimeLimit < 0 {
		return Invariantf(ErrInvalidSchedule, "time limit cannot be negative, got %s", s.TimeLimit).WithOperation(op)
	}
	if _, err := ParseCooling(string(s.Cooling)); err != nil {
		return err
	}
	return nil
}

// Temperature returns the temperature at progress p in [0, 1].
func (s Schedule) Temperature(p float64) float64 {
	if s.Cooling == LinearCooling {
		return s.StartTemperature + (s.EndTemperature-s.StartTemperature)*p
	}
	return s.StartTemperature * math.Pow(s.EndTemperature/s.StartTemperature, p)
}

// Result contains the outcome of an optimization run.
type Result[S any] struct {
	BestState    S
	BestScore    float64
	InitialScore float64
	Iterations   int
	Accepted     int
	Improved     int
	// Stopped is set when the run ended before its iteration budget
	// because the context was cancelled or the time limit elapsed.
	Stopped  bool
	Duration time.Duration
}
