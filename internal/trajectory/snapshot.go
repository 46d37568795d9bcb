package trajectory

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/orbitplan/internal/optimization"
)

// Params are the craft parameters chosen at match start. Only
// CooldownPerTurn and Energy affect planning.
type Params struct {
	Energy          int `json:"energy" yaml:"energy"`
	LaserPower      int `json:"laser_power" yaml:"laser_power"`
	CooldownPerTurn int `json:"cooldown_per_turn" yaml:"cooldown_per_turn"`
	Life            int `json:"life" yaml:"life"`
}

// MaxTurns is the length of a match. No snapshot can have more turns left.
const MaxTurns = 256

// Snapshot is the physics state a plan starts from. It is never mutated by
// this package.
type Snapshot struct {
	Position       Vec
	Velocity       Vec
	Heat           int
	Params         Params
	Gravity        GravityField
	Boundary       *SafetyBoundary
	TurnsRemaining int
}

// Validate rejects snapshots that cannot be simulated.
func (s Snapshot) Validate() error {
	op := "Snapshot.Validate"
	switch {
	case s.Heat < 0:
		return optimization.Invariantf(optimization.ErrInvalidSnapshot, "heat cannot be negative, got %d", s.Heat).WithOperation(op)
	case s.Params.CooldownPerTurn < 0:
		return optimization.Invariantf(optimization.ErrInvalidSnapshot, "cooldown per turn cannot be negative, got %d", s.Params.CooldownPerTurn).WithOperation(op)
	case s.TurnsRemaining < 0:
		return optimization.Invariantf(optimization.ErrInvalidSnapshot, "turns remaining cannot be negative, got %d", s.TurnsRemaining).WithOperation(op)
	case s.TurnsRemaining > MaxTurns:
		return optimization.Invariantf(optimization.ErrInvalidSnapshot, "turns remaining cannot exceed %d, got %d", MaxTurns, s.TurnsRemaining).WithOperation(op)
	}
	if b := s.Boundary; b != nil && (b.InnerRadius < 0 || b.OuterRadius < 0) {
		return optimization.Invariantf(optimization.ErrInvalidSnapshot, "boundary radii cannot be negative, got inner=%d outer=%d", b.InnerRadius, b.OuterRadius).WithOperation(op)
	}
	return nil
}

func (s Snapshot) gravity() GravityField {
	if s.Gravity == nil {
		return NoGravity{}
	}
	return s.Gravity
}

// Gravity field names accepted in SnapshotSpec.
const (
	GravityAuto         = ""
	GravityNone         = "none"
	GravityDominantAxis = "dominant_axis"
)

// Obstacle is the game's stage descriptor. A stage with an obstacle has
// both a gravity well and a bounded playing field.
type Obstacle struct {
	GravityRadius int `json:"gravity_radius" yaml:"gravity_radius"`
	StageHalfSize int `json:"stage_half_size" yaml:"stage_half_size"`
}

// SnapshotSpec is the serialized form of a Snapshot used by the HTTP API
// and snapshot files.
type SnapshotSpec struct {
	Position Vec    `json:"position" yaml:"position"`
	Velocity Vec    `json:"velocity" yaml:"velocity"`
	Heat     int    `json:"heat" yaml:"heat"`
	Params   Params `json:"params" yaml:"params"`

	// Obstacle enables dominant-axis gravity and the matching boundary.
	Obstacle *Obstacle `json:"obstacle,omitempty" yaml:"obstacle,omitempty"`
	// Gravity overrides the field implied by Obstacle.
	Gravity string `json:"gravity,omitempty" yaml:"gravity,omitempty"`
	// Boundary overrides the boundary implied by Obstacle.
	Boundary *SafetyBoundary `json:"boundary,omitempty" yaml:"boundary,omitempty"`

	TurnsRemaining int `json:"turns_remaining" yaml:"turns_remaining"`
}

// Snapshot converts sp to a Snapshot, resolving gravity and boundary from the
// obstacle and any overrides.
func (sp SnapshotSpec) Snapshot() (Snapshot, error) {
	snap := Snapshot{
		Position:       sp.Position,
		Velocity:       sp.Velocity,
		Heat:           sp.Heat,
		Params:         sp.Params,
		Gravity:        NoGravity{},
		TurnsRemaining: sp.TurnsRemaining,
	}
	if sp.Obstacle != nil {
		snap.Gravity = DominantAxisPull{}
		snap.Boundary = &SafetyBoundary{
			InnerRadius: sp.Obstacle.GravityRadius,
			OuterRadius: sp.Obstacle.StageHalfSize,
		}
	}
	if sp.Boundary != nil {
		b := *sp.Boundary
		snap.Boundary = &b
	}

	switch strings.ToLower(strings.TrimSpace(sp.Gravity)) {
	case GravityAuto:
	case GravityNone:
		snap.Gravity = NoGravity{}
	case GravityDominantAxis:
		snap.Gravity = DominantAxisPull{}
	default:
		return Snapshot{}, optimization.Invariantf(optimization.ErrInvalidSnapshot, "unknown gravity field %q", sp.Gravity).
			WithOperation("SnapshotSpec.Snapshot")
	}

	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// DecodeSnapshot reads a YAML (or JSON) snapshot document.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var sp SnapshotSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sp); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return sp.Snapshot()
}
