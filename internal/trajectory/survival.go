package trajectory

// SurvivalTime is the number of turns the craft stays safe after a single
// thrust of accel followed by coasting, capped at the turns remaining.
func SurvivalTime(snap Snapshot, accel Vec) int {
	return simulate(snap, Plan{accel}, false).CompletedSteps
}

// BestSingleThrust picks the thrust that survives longest on its own.
// Among equally long survivals the weakest thrust wins, and coasting wins
// over any thrust. Heat is ignored.
func BestSingleThrust(snap Snapshot) (Vec, int) {
	var (
		best     Vec
		bestTime = -1
		bestMag  int
	)
	for _, a := range Accelerations {
		t := SurvivalTime(snap, a)
		mag := a.Manhattan()
		if t > bestTime || (t == bestTime && mag <= bestMag) {
			best, bestTime, bestMag = a, t, mag
		}
	}
	return best, bestTime
}
