package trajectory

// Heat and scoring constants of the match rules.
const (
	// ThrustHeat is the heat added by one non-zero thrust.
	ThrustHeat = 8
	// MaxHeat is the heat ceiling. Heat above it is clipped and counted as
	// overheat.
	MaxHeat = 64
	// CrashPenalty is the base score of a trajectory that leaves the safe
	// region before the match ends.
	CrashPenalty = 1000
	// OverheatWeight scales accumulated overheat in the survival score.
	OverheatWeight = 10
)

// Outcome is the result of forward-simulating a plan.
type Outcome struct {
	// CompletedSteps is the number of steps that ended in a safe position.
	CompletedSteps int `json:"completed_steps"`
	Crashed        bool `json:"crashed"`
	// LastUsedStep is the last step with a non-zero thrust, 0 if none.
	LastUsedStep int `json:"last_used_step"`
	Overheat     int `json:"overheat"`
	FinalHeat    int `json:"final_heat"`
	// Path holds the position after every simulated step, including the
	// crash position. Only filled by Simulate.
	Path []Vec `json:"path,omitempty"`
}

// Score turns an outcome into the objective value for a match with
// turnsRemaining turns left. Lower is better.
func (o Outcome) Score(turnsRemaining int) float64 {
	if o.CompletedSteps < turnsRemaining {
		return float64(CrashPenalty + turnsRemaining - o.CompletedSteps)
	}
	return float64(o.LastUsedStep + OverheatWeight*o.Overheat)
}

// Simulate runs plan from snap until the match ends or the craft leaves
// the safe region, recording the path.
func Simulate(snap Snapshot, plan Plan) Outcome {
	return simulate(snap, plan, true)
}

// simulate applies, per step, the planned thrust as velocity -= accel,
// then the gravity at the current position, then advances the position.
// Steps past the end of plan coast.
func simulate(snap Snapshot, plan Plan, record bool) Outcome {
	g := snap.gravity()
	pos, vel, heat := snap.Position, snap.Velocity, snap.Heat
	cooldown := snap.Params.CooldownPerTurn

	var out Outcome
	if record {
		out.Path = make([]Vec, 0, max(0, min(snap.TurnsRemaining, MaxTurns)))
	}

	for s := 0; s < snap.TurnsRemaining; s++ {
		var a Vec
		if s < len(plan) {
			a = plan[s]
		}
		vel = vel.Sub(a)
		vel = vel.Add(g.Accel(pos))
		pos = pos.Add(vel)
		if record {
			out.Path = append(out.Path, pos)
		}

		if !a.IsZero() {
			heat += ThrustHeat
			out.LastUsedStep = s
		}
		heat -= min(heat, cooldown)
		if heat > MaxHeat {
			out.Overheat += heat - MaxHeat
			heat = MaxHeat
		}

		if !snap.Boundary.Safe(pos) {
			out.Crashed = true
			break
		}
		out.CompletedSteps++
	}

	out.FinalHeat = heat
	return out
}
