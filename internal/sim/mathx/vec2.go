package mathx

import "math"

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(f float64) Vec2 { return Vec2{a.X * f, a.Y * f} }
func (a Vec2) Dot(b Vec2) float64   { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Len() float64         { return math.Sqrt(a.X*a.X + a.Y*a.Y) }
func (a Vec2) IsZero() bool         { return a.X == 0 && a.Y == 0 }
func (a Vec2) Dist(b Vec2) float64  { return a.Sub(b).Len() }

func (a Vec2) Normalize() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Angle returns the direction of a in radians, atan2 convention.
func (a Vec2) Angle() float64 { return math.Atan2(a.Y, a.X) }

// Dir is the unit vector for angle a (radians).
func Dir(a float64) Vec2 { return Vec2{math.Cos(a), math.Sin(a)} }

func MixVec(a, b Vec2, t float64) Vec2 {
	return Vec2{Mix(a.X, b.X, t), Mix(a.Y, b.Y, t)}
}

// ClosestPointOnSegment projects p onto the segment ab.
func ClosestPointOnSegment(a, b, p Vec2) Vec2 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}
