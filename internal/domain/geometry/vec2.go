// Package geometry provides the 2D vector math shared by the temporal
// systems. Kept deliberately small; collision and shape math live outside
// the core.
package geometry

import "math"

// Vec2 is a 2D point or velocity in world units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// DistanceSq returns the squared distance to o. Used for nearest-anchor
// selection where the actual distance is not needed.
func (v Vec2) DistanceSq(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

// Normalized returns the unit vector, or the zero vector if v is zero.
func (v Vec2) Normalized() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Lerp interpolates linearly between a and b; t is clamped to [0, 1].
func Lerp(a, b Vec2, t float64) Vec2 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}
