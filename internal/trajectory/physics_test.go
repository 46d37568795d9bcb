package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDominantAxisPull(t *testing.T) {
	tests := []struct {
		name string
		pos  Vec
		want Vec
	}{
		{"origin", Vec{0, 0}, Vec{0, 0}},
		{"x dominant positive", Vec{5, 2}, Vec{-1, 0}},
		{"x dominant negative", Vec{-7, 3}, Vec{1, 0}},
		{"y dominant", Vec{1, -9}, Vec{0, 1}},
		{"diagonal tie", Vec{-20, -20}, Vec{1, 1}},
		{"anti-diagonal tie", Vec{4, -4}, Vec{-1, 1}},
		{"on x axis", Vec{3, 0}, Vec{-1, 0}},
		{"on y axis", Vec{0, 12}, Vec{0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DominantAxisPull{}.Accel(tt.pos))
		})
	}
}

func TestNoGravity(t *testing.T) {
	for _, p := range []Vec{{0, 0}, {10, -3}, {-100, 100}} {
		assert.True(t, NoGravity{}.Accel(p).IsZero())
	}
}

func TestSafetyBoundary(t *testing.T) {
	b := &SafetyBoundary{InnerRadius: 2, OuterRadius: 10}

	tests := []struct {
		name string
		pos  Vec
		safe bool
	}{
		{"center", Vec{0, 0}, false},
		{"inner corner", Vec{2, -2}, false},
		{"just outside inner on x", Vec{3, 0}, true},
		{"just outside inner on y", Vec{-1, 3}, true},
		{"outer edge", Vec{10, 10}, true},
		{"beyond outer on x", Vec{11, 0}, false},
		{"beyond outer on y", Vec{0, -11}, false},
		{"mid ring", Vec{5, -7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.safe, b.Safe(tt.pos))
		})
	}
}

func TestSafetyBoundaryProperty(t *testing.T) {
	b := &SafetyBoundary{InnerRadius: 3, OuterRadius: 8}
	var none *SafetyBoundary

	for x := -12; x <= 12; x++ {
		for y := -12; y <= 12; y++ {
			p := Vec{x, y}
			inner := abs(x) <= b.InnerRadius && abs(y) <= b.InnerRadius
			outer := abs(x) > b.OuterRadius || abs(y) > b.OuterRadius
			assert.Equal(t, !inner && !outer, b.Safe(p), "position %v", p)
			assert.True(t, none.Safe(p), "nil boundary must accept %v", p)
		}
	}
}
