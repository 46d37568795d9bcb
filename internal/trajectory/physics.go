package trajectory

// GravityField maps a position to the acceleration the field applies there.
type GravityField interface {
	Accel(pos Vec) Vec
}

// NoGravity is the field of a stage without an obstacle.
type NoGravity struct{}

// Accel always returns the zero vector.
func (NoGravity) Accel(Vec) Vec { return Vec{} }

// DominantAxisPull pulls one unit toward the origin along whichever axis
// has the larger absolute coordinate, and along both axes on a tie. The
// pull does not depend on distance.
type DominantAxisPull struct{}

// Accel returns the unit pull at pos. The origin itself feels no pull.
func (DominantAxisPull) Accel(pos Vec) Vec {
	ax, ay := abs(pos.X), abs(pos.Y)
	var g Vec
	if ax >= ay {
		g.X = -sign(pos.X)
	}
	if ay >= ax {
		g.Y = -sign(pos.Y)
	}
	return g
}

// SafetyBoundary describes the safe annulus: positions whose coordinates
// both lie within InnerRadius are inside the gravity well, and positions
// with a coordinate beyond OuterRadius are off the stage.
type SafetyBoundary struct {
	InnerRadius int `json:"inner_radius" yaml:"inner_radius"`
	OuterRadius int `json:"outer_radius" yaml:"outer_radius"`
}

// Safe reports whether pos is inside the safe region. A nil boundary makes
// every position safe.
func (b *SafetyBoundary) Safe(pos Vec) bool {
	if b == nil {
		return true
	}
	ax, ay := abs(pos.X), abs(pos.Y)
	if ax <= b.InnerRadius && ay <= b.InnerRadius {
		return false
	}
	if ax > b.OuterRadius || ay > b.OuterRadius {
		return false
	}
	return true
}
