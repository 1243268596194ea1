// Package simulation is a small velocity-Verlet force engine with the
// semantics of d3-force: a cooling alpha, link springs, many-body charge,
// collision and centering.
//
// Nodes are the catalog's own *catalog.Node values; the simulation mutates
// their X/Y/Vx/Vy in place and honors Fx/Fy pins. It is not safe for
// concurrent use.
package simulation

import (
	"math"
	"math/rand"

	"github.com/dd0wney/stratnet/pkg/catalog"
)

// Config configures the cooling schedule. Zero values take defaults.
type Config struct {
	Alpha         float64 // Initial alpha
	AlphaMin      float64 // Convergence threshold
	AlphaDecay    float64 // Per-tick approach rate towards AlphaTarget
	VelocityDecay float64 // Friction applied to velocities every tick
	Seed          int64   // Seed for jiggle
}

// DefaultConfig matches d3-force: 300 ticks from alpha 1 to 0.001.
var DefaultConfig = Config{
	Alpha:         1,
	AlphaMin:      0.001,
	AlphaDecay:    1 - math.Pow(0.001, 1.0/300),
	VelocityDecay: 0.4,
	Seed:          1,
}

const (
	initialRadius = 10
	distanceMin2  = 1
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Forces are the per-element parameter functions. A nil function disables
// the corresponding force.
type Forces struct {
	LinkDistance func(l catalog.Link) float64
	Charge       func(n *catalog.Node) float64
	Radius       func(n *catalog.Node) float64
	CenterX      float64
	CenterY      float64
	Center       bool
}

type spring struct {
	link     catalog.Link
	source   *catalog.Node
	target   *catalog.Node
	distance float64
	strength float64
	bias     float64
}

// Simulation holds the live layout state.
type Simulation struct {
	nodes   []*catalog.Node
	links   []catalog.Link
	springs []spring
	forces  Forces
	charges []float64
	radii   []float64

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	rng     *rand.Rand
	ticks   uint64
	stopped bool
}

// New creates a simulation with the given cooling schedule.
func New(cfg Config) *Simulation {
	if cfg.Alpha == 0 {
		cfg.Alpha = DefaultConfig.Alpha
	}
	if cfg.AlphaMin == 0 {
		cfg.AlphaMin = DefaultConfig.AlphaMin
	}
	if cfg.AlphaDecay == 0 {
		cfg.AlphaDecay = 1 - math.Pow(cfg.AlphaMin, 1.0/300)
	}
	if cfg.VelocityDecay == 0 {
		cfg.VelocityDecay = DefaultConfig.VelocityDecay
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultConfig.Seed
	}
	return &Simulation{
		alpha:         cfg.Alpha,
		alphaMin:      cfg.AlphaMin,
		alphaDecay:    cfg.AlphaDecay,
		velocityDecay: 1 - cfg.VelocityDecay,
		rng:           rand.New(rand.NewSource(cfg.Seed)),
	}
}

// SetNodes replaces the node set. Positions are left as they are; nodes
// without coordinates are placed on the next tick.
func (s *Simulation) SetNodes(nodes []*catalog.Node) {
	s.nodes = nodes
	s.SetLinks(s.links)
}

// SetLinks replaces the active link set. Links with an endpoint outside the
// node set are ignored; the number ignored is returned.
func (s *Simulation) SetLinks(links []catalog.Link) int {
	s.links = links
	byID := make(map[string]*catalog.Node, len(s.nodes))
	for _, n := range s.nodes {
		byID[n.ID] = n
	}

	s.springs = s.springs[:0]
	degree := make(map[*catalog.Node]int, len(s.nodes))
	dropped := 0
	for _, l := range links {
		src, ok1 := byID[l.Source]
		dst, ok2 := byID[l.Target]
		if !ok1 || !ok2 {
			dropped++
			continue
		}
		degree[src]++
		degree[dst]++
		s.springs = append(s.springs, spring{link: l, source: src, target: dst})
	}
	for i := range s.springs {
		sp := &s.springs[i]
		ds, dt := float64(degree[sp.source]), float64(degree[sp.target])
		sp.bias = ds / (ds + dt)
		sp.strength = 1 / math.Min(ds, dt)
	}
	s.refresh()
	return dropped
}

// SetForces reassigns the force functions on the running simulation. Node
// positions and velocities are untouched.
func (s *Simulation) SetForces(f Forces) {
	s.forces = f
	s.refresh()
}

// refresh re-evaluates the cached per-node and per-link parameters.
func (s *Simulation) refresh() {
	for i := range s.springs {
		sp := &s.springs[i]
		sp.distance = 30
		if s.forces.LinkDistance != nil {
			sp.distance = s.forces.LinkDistance(sp.link)
		}
	}
	s.charges = s.charges[:0]
	s.radii = s.radii[:0]
	for _, n := range s.nodes {
		if s.forces.Charge != nil {
			s.charges = append(s.charges, s.forces.Charge(n))
		}
		if s.forces.Radius != nil {
			s.radii = append(s.radii, s.forces.Radius(n))
		}
	}
}

// Nodes returns the simulated nodes.
func (s *Simulation) Nodes() []*catalog.Node { return s.nodes }

// Links returns the active links.
func (s *Simulation) Links() []catalog.Link { return s.links }

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the current energy.
func (s *Simulation) SetAlpha(a float64) { s.alpha = a }

// AlphaTarget returns the energy the simulation cools towards.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the energy the simulation cools towards.
func (s *Simulation) SetAlphaTarget(a float64) { s.alphaTarget = a }

// Reheat raises alpha to at least a and resumes a stopped simulation.
func (s *Simulation) Reheat(a float64) {
	if s.alpha < a {
		s.alpha = a
	}
	s.stopped = false
}

// Restart resumes a stopped simulation without changing alpha.
func (s *Simulation) Restart() { s.stopped = false }

// Stop halts ticking until the next Reheat or Restart.
func (s *Simulation) Stop() { s.stopped = true }

// Stopped reports whether Stop was called.
func (s *Simulation) Stopped() bool { return s.stopped }

// Converged reports whether alpha fell below the threshold with nothing
// holding it up. A raised alpha target keeps the simulation running.
func (s *Simulation) Converged() bool {
	return s.alpha < s.alphaMin && s.alphaTarget < s.alphaMin
}

// Ticks returns the number of steps taken.
func (s *Simulation) Ticks() uint64 { return s.ticks }

// Tick advances the simulation one step. It returns false without moving
// anything once the simulation has converged or been stopped, and reports
// whether it is still running after the step otherwise.
func (s *Simulation) Tick() bool {
	if s.stopped || s.Converged() {
		return false
	}
	s.step()
	return !s.Converged()
}

func (s *Simulation) step() {
	s.placeMissing()
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCollision()
	s.applyCenter()

	for _, n := range s.nodes {
		if n.Pinned() {
			n.SetPosition(*n.Fx, *n.Fy)
			n.Vx, n.Vy = 0, 0
			continue
		}
		n.Vx *= s.velocityDecay
		n.Vy *= s.velocityDecay
		n.SetPosition(*n.X+n.Vx, *n.Y+n.Vy)
	}
	s.ticks++
}

// placeMissing gives nodes without coordinates a position on a phyllotaxis
// spiral around the center, indexed by their slot in the node set.
func (s *Simulation) placeMissing() {
	for i, n := range s.nodes {
		if n.Pinned() && !n.Placed() {
			n.SetPosition(*n.Fx, *n.Fy)
			continue
		}
		if n.Placed() {
			continue
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		n.SetPosition(s.forces.CenterX+r*math.Cos(a), s.forces.CenterY+r*math.Sin(a))
		n.Vx, n.Vy = 0, 0
	}
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
