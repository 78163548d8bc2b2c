package tilemap

import "outbreak.gg/internal/sim/mathx"

// IntersectLine walks from a to b and reports the first solid point. before is
// the last free point on the way.
func (g *Grid) IntersectLine(a, b mathx.Vec2) (hit bool, at, before mathx.Vec2) {
	d := a.Dist(b)
	end := int(d + 1)
	last := a
	for i := 0; i <= end; i++ {
		t := 0.0
		if end > 0 {
			t = float64(i) / float64(end)
		}
		p := mathx.MixVec(a, b, t)
		if g.IsSolid(p.X, p.Y) {
			return true, p, last
		}
		last = p
	}
	return false, b, b
}

// TestBox reports whether a box of size centred on pos overlaps solid tiles.
func (g *Grid) TestBox(pos, size mathx.Vec2) bool {
	hx, hy := size.X*0.5, size.Y*0.5
	return g.IsSolid(pos.X-hx, pos.Y-hy) ||
		g.IsSolid(pos.X+hx, pos.Y-hy) ||
		g.IsSolid(pos.X-hx, pos.Y+hy) ||
		g.IsSolid(pos.X+hx, pos.Y+hy)
}

// MoveBox advances a box by vel in sub-steps, sliding along solid tiles.
// Velocity components that hit a wall are reflected by elasticity.
func (g *Grid) MoveBox(pos, vel, size mathx.Vec2, elasticity float64) (mathx.Vec2, mathx.Vec2) {
	dist := vel.Len()
	if dist <= 0.00001 {
		return pos, vel
	}
	max := int(dist)
	fraction := 1.0 / float64(max+1)
	for i := 0; i <= max; i++ {
		next := pos.Add(vel.Scale(fraction))
		if g.TestBox(next, size) {
			hits := 0
			if g.TestBox(mathx.V(pos.X, next.Y), size) {
				next.Y = pos.Y
				vel.Y *= -elasticity
				hits++
			}
			if g.TestBox(mathx.V(next.X, pos.Y), size) {
				next.X = pos.X
				vel.X *= -elasticity
				hits++
			}
			if hits == 0 {
				next = pos
				vel = vel.Scale(-elasticity)
			}
		}
		pos = next
	}
	return pos, vel
}
