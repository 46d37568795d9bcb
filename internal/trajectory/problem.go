// Package trajectory defines the discrete-time orbital planning problem:
// the craft physics, the safe region, and an optimization.Problem over
// fixed-length thrust sequences.
package trajectory

import (
	"math/rand"

	"github.com/copyleftdev/orbitplan/internal/optimization"
)

// DefaultHorizonCap is the longest plan searched by default.
const DefaultHorizonCap = 20

// Plan is a thrust sequence, one acceleration per upcoming turn.
type Plan []Vec

// Trim returns plan without its trailing zero accelerations. The result
// shares storage with plan.
func (p Plan) Trim() Plan {
	n := len(p)
	for n > 0 && p[n-1].IsZero() {
		n--
	}
	return p[:n]
}

// Clone returns an independent copy of p.
func (p Plan) Clone() Plan {
	return append(Plan(nil), p...)
}

// Move overwrites one step of a plan.
type Move struct {
	Index int
	New   Vec
	Old   Vec
}

// Problem searches thrust sequences for one snapshot. It holds no mutable
// state and is safe for concurrent use.
type Problem struct {
	snap    Snapshot
	horizon int
}

var _ optimization.Problem[Plan, Move] = (*Problem)(nil)

// NewProblem plans at most horizonCap turns ahead, and never past the end
// of the match.
func NewProblem(snap Snapshot, horizonCap int) (*Problem, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	horizon := min(horizonCap, snap.TurnsRemaining)
	if horizon <= 0 {
		return nil, optimization.Invariantf(optimization.ErrEmptySearchSpace,
			"planning horizon must be positive (cap=%d, turns remaining=%d)", horizonCap, snap.TurnsRemaining).
			WithOperation("NewProblem").WithComponent("trajectory")
	}
	return &Problem{snap: snap, horizon: horizon}, nil
}

// Horizon is the length of every plan this problem produces.
func (p *Problem) Horizon() int {
	return p.horizon
}

// Snapshot returns the snapshot the problem plans from.
func (p *Problem) Snapshot() Snapshot {
	return p.snap
}

// InitState draws each component uniformly from {-1, 0, 1}.
func (p *Problem) InitState(rng *rand.Rand) Plan {
	plan := make(Plan, p.horizon)
	for i := range plan {
		plan[i] = Vec{X: rng.Intn(3) - 1, Y: rng.Intn(3) - 1}
	}
	return plan
}

// Eval simulates the plan over the rest of the match and scores it.
func (p *Problem) Eval(plan Plan) float64 {
	return simulate(p.snap, plan, false).Score(p.snap.TurnsRemaining)
}

// Neighbour picks a uniform step and a uniform replacement different from
// its current thrust. progress is not used.
func (p *Problem) Neighbour(plan Plan, _ float64, rng *rand.Rand) Move {
	idx := rng.Intn(len(plan))
	old := plan[idx]
	j := rng.Intn(len(Accelerations) - 1)
	if cur := accelIndex(old); cur >= 0 && j >= cur {
		j++
	}
	return Move{Index: idx, New: Accelerations[j], Old: old}
}

// Apply overwrites the move's step.
func (p *Problem) Apply(plan Plan, m Move) {
	plan[m.Index] = m.New
}

// Unapply restores the move's step.
func (p *Problem) Unapply(plan Plan, m Move) {
	plan[m.Index] = m.Old
}

// Clone copies a plan.
func (p *Problem) Clone(plan Plan) Plan {
	return plan.Clone()
}
