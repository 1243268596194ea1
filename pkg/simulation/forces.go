package simulation

import "math"

func (s *Simulation) applyLinks() {
	if s.forces.LinkDistance == nil {
		return
	}
	for i := range s.springs {
		sp := &s.springs[i]
		src, dst := sp.source, sp.target
		x := *dst.X + dst.Vx - *src.X - src.Vx
		y := *dst.Y + dst.Vy - *src.Y - src.Vy
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		l := math.Sqrt(x*x + y*y)
		l = (l - sp.distance) / l * s.alpha * sp.strength
		x *= l
		y *= l
		dst.Vx -= x * sp.bias
		dst.Vy -= y * sp.bias
		src.Vx += x * (1 - sp.bias)
		src.Vy += y * (1 - sp.bias)
	}
}

// applyCharge is the exact pairwise form of the many-body force.
func (s *Simulation) applyCharge() {
	if len(s.charges) != len(s.nodes) {
		return
	}
	for i, n := range s.nodes {
		for j, o := range s.nodes {
			if i == j {
				continue
			}
			x := *o.X - *n.X
			y := *o.Y - *n.Y
			if x == 0 {
				x = s.jiggle()
			}
			if y == 0 {
				y = s.jiggle()
			}
			l := x*x + y*y
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			w := s.charges[j] * s.alpha / l
			n.Vx += x * w
			n.Vy += y * w
		}
	}
}

func (s *Simulation) applyCollision() {
	if len(s.radii) != len(s.nodes) {
		return
	}
	for i, n := range s.nodes {
		ri := s.radii[i]
		ri2 := ri * ri
		xi := *n.X + n.Vx
		yi := *n.Y + n.Vy
		for j := i + 1; j < len(s.nodes); j++ {
			o := s.nodes[j]
			rj := s.radii[j]
			r := ri + rj
			x := xi - *o.X - o.Vx
			y := yi - *o.Y - o.Vy
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			l = (r - l) / l
			x *= l
			y *= l
			rj2 := rj * rj
			share := rj2 / (ri2 + rj2)
			n.Vx += x * share
			n.Vy += y * share
			o.Vx -= x * (1 - share)
			o.Vy -= y * (1 - share)
		}
	}
}

// applyCenter translates every node so the mean position sits on the center.
// Pinned nodes snap back to their pins at the end of the tick.
func (s *Simulation) applyCenter() {
	if !s.forces.Center || len(s.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range s.nodes {
		sx += *n.X
		sy += *n.Y
	}
	sx = sx/float64(len(s.nodes)) - s.forces.CenterX
	sy = sy/float64(len(s.nodes)) - s.forces.CenterY
	for _, n := range s.nodes {
		n.SetPosition(*n.X-sx, *n.Y-sy)
	}
}
