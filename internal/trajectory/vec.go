package trajectory

import "fmt"

// Vec is an integer 2D vector used for positions, velocities and
// accelerations.
type Vec struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v-o.
func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

// IsZero reports whether both components are zero.
func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Manhattan returns |x|+|y|.
func (v Vec) Manhattan() int {
	return abs(v.X) + abs(v.Y)
}

// IsUnit reports whether both components are in {-1, 0, 1}.
func (v Vec) IsUnit() bool {
	return v.X >= -1 && v.X <= 1 && v.Y >= -1 && v.Y <= 1
}

func (v Vec) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// Accelerations lists every discrete thrust. The zero vector comes last so
// that ties in BestSingleThrust resolve to coasting.
var Accelerations = [9]Vec{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
	{0, 0},
}

// accelIndex returns the position of a in Accelerations, or -1.
func accelIndex(a Vec) int {
	for i, v := range Accelerations {
		if v == a {
			return i
		}
	}
	return -1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
