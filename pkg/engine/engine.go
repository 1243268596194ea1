// Package engine owns the live layout: the catalog, the force simulation and
// every control that reconfigures them.
//
// An Engine is single-owner and not safe for concurrent use. Hosts that need
// concurrency go through a Controller, which serializes calls onto one
// goroutine and interleaves them with simulation ticks.
package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/metrics"
	"github.com/dd0wney/stratnet/pkg/simulation"
	"github.com/dd0wney/stratnet/pkg/traversal"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

// Engine is the single owner of the node/link collection.
type Engine struct {
	cfg       Config
	cat       *catalog.Catalog
	sim       *simulation.Simulation
	policy    visualization.ForcePolicy
	filter    visualization.LinkFilter
	rng       *rand.Rand
	path      *traversal.Path
	traversal bool
	dragging  map[string]time.Time // last start or move per node
	unplaced  []string

	callbacks Callbacks
	logger    logging.Logger
	metrics   *metrics.Registry
	now       func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCatalog starts from cat instead of the built-in seed. The engine takes
// ownership of cat.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(e *Engine) { e.cat = cat }
}

// WithCallbacks installs the host hooks.
func WithCallbacks(cb Callbacks) Option {
	return func(e *Engine) { e.callbacks = cb }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records engine metrics into r.
func WithMetrics(r *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithClock overrides time.Now for snapshot and document timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New places the catalog radially and starts a simulation over it.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Viewport.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Distances.Validate(); err != nil {
		return nil, err
	}
	filter := visualization.AllFlows()
	if cfg.Enabled != nil {
		f, err := visualization.NewLinkFilter(cfg.Enabled...)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	e := &Engine{
		cfg:      cfg,
		policy:   visualization.NewForcePolicy(cfg.Distances, cfg.Viewport),
		filter:   filter,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		path:     traversal.NewPath(),
		dragging: make(map[string]time.Time),
		logger:   logging.NewNopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cat == nil {
		e.cat = catalog.Seed()
	}
	e.logger = e.logger.With(logging.Component("engine"))

	e.place(visualization.PlaceAll)
	e.sim = simulation.New(cfg.Simulation)
	e.sim.SetNodes(e.cat.Nodes())
	e.sim.SetLinks(e.filter.Visible(e.cat.Links()))
	e.applyForces()
	e.updateCatalogMetrics()

	e.logger.Info("layout engine started",
		logging.Count(e.cat.Len()),
		logging.Float64("width", cfg.Viewport.Width),
		logging.Float64("height", cfg.Viewport.Height),
	)
	return e, nil
}

func (e *Engine) place(mode visualization.Mode) {
	e.unplaced = visualization.PlaceRadial(e.cat, e.policy.Viewport, e.rng, mode, e.cfg.Layout)
	for _, id := range e.unplaced {
		e.logger.Warn("node has no resolvable sector, leaving it to default placement", logging.NodeID(id))
	}
}

// applyForces rebuilds the force functions from the current policy and hands
// them to the running simulation.
func (e *Engine) applyForces() {
	p := e.policy
	center := p.Viewport.Center()
	e.sim.SetForces(simulation.Forces{
		LinkDistance: func(l catalog.Link) float64 { return p.LinkDistance(l.Type) },
		Charge:       p.Charge,
		Radius:       p.CollisionRadius,
		CenterX:      center.X,
		CenterY:      center.Y,
		Center:       true,
	})
}

func (e *Engine) reheat(kind string) {
	e.sim.Reheat(ReheatAlpha)
	e.metrics.RecordReconfiguration(kind)
}

// SetVisibleLinkTypes replaces the enabled flow types. Structure links stay
// visible whatever is passed.
func (e *Engine) SetVisibleLinkTypes(types []catalog.LinkType) error {
	f, err := visualization.NewLinkFilter(types...)
	if err != nil {
		return err
	}
	e.filter = f
	e.sim.SetLinks(e.filter.Visible(e.cat.Links()))
	e.reheat("link_types")
	e.logger.Debug("visible link types changed", logging.String("types", f.String()))
	return nil
}

// SetLinkDistances updates the base distance of the given link types. The
// update is all or nothing.
func (e *Engine) SetLinkDistances(values map[catalog.LinkType]float64) error {
	d, err := e.policy.Distances.Apply(values)
	if err != nil {
		return err
	}
	e.policy.Distances = d
	e.applyForces()
	e.reheat("distances")
	return nil
}

// ResetLinkDistances restores the configured defaults.
func (e *Engine) ResetLinkDistances() {
	e.policy.Distances = visualization.DefaultDistances()
	e.applyForces()
	e.reheat("distances")
}

// Resize recomputes every viewport-dependent force. Existing positions are
// never re-placed. Resizing to the current dimensions is a no-op.
func (e *Engine) Resize(width, height float64) error {
	vp := visualization.Viewport{Width: width, Height: height}
	if err := vp.Validate(); err != nil {
		return err
	}
	if vp == e.policy.Viewport {
		return nil
	}
	e.policy.Viewport = vp
	e.applyForces()
	e.reheat("viewport")
	return nil
}

// ExportSnapshot renders the catalog, live positions included.
func (e *Engine) ExportSnapshot() catalog.Payload {
	p := e.cat.Payload()
	p.Metadata.SnapshotID = uuid.NewString()
	p.Metadata.Created = e.now().UTC().Format(time.RFC3339)
	return p
}

// ImportData merges p into the catalog. On any validation failure the
// catalog is left untouched. New nodes without coordinates are placed
// radially before the simulation resumes.
func (e *Engine) ImportData(p *catalog.Payload) (*catalog.MergeResult, error) {
	timer := logging.StartTimer(e.logger, "catalog import")
	res, err := e.cat.Merge(p)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}

	e.place(visualization.PlaceUnplaced)
	e.sim.SetNodes(e.cat.Nodes())
	e.sim.SetLinks(e.filter.Visible(e.cat.Links()))
	e.applyForces()
	e.reheat("import")
	e.updateCatalogMetrics()

	for _, w := range res.Warnings {
		e.logger.Warn("catalog finding", logging.String("finding", w))
	}
	timer.End()
	return res, nil
}

// ImportJSON parses and imports a JSON document.
func (e *Engine) ImportJSON(data []byte) (*catalog.MergeResult, error) {
	p, err := catalog.ParsePayload(data)
	if err != nil {
		return nil, err
	}
	return e.ImportData(p)
}

func (e *Engine) lookup(id string) (*catalog.Node, error) {
	n, ok := e.cat.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownNode, id)
	}
	return n, nil
}

// Activate reports a node to the host. In traversal mode the node is
// appended to the path instead and the path is reported.
func (e *Engine) Activate(id string) error {
	n, err := e.lookup(id)
	if err != nil {
		return err
	}
	if !e.traversal {
		e.metrics.RecordActivation("select")
		if e.callbacks.OnNodeSelect != nil {
			e.callbacks.OnNodeSelect(n.Clone())
		}
		return nil
	}

	e.metrics.RecordActivation("path")
	if e.path.Append(id) {
		e.notifyPath()
	}
	return nil
}

func (e *Engine) notifyPath() {
	if e.callbacks.OnPathUpdate != nil {
		e.callbacks.OnPathUpdate(e.Path())
	}
}

// Path returns copies of the nodes on the path.
func (e *Engine) Path() []catalog.Node {
	ids := e.path.Nodes()
	out := make([]catalog.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := e.cat.Node(id); ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

// SetTraversalMode switches path-building on or off. Switching it on starts
// a fresh path.
func (e *Engine) SetTraversalMode(on bool) {
	if on && !e.traversal {
		e.path.Reset()
		e.notifyPath()
	}
	e.traversal = on
}

// TraversalMode reports whether path-building is active.
func (e *Engine) TraversalMode() bool {
	return e.traversal
}

// ClearPath empties the path.
func (e *Engine) ClearPath() {
	e.path.Reset()
	e.notifyPath()
}

// PathDocument renders the path with its connectivity analysis over the
// currently visible links.
func (e *Engine) PathDocument() (*traversal.Document, error) {
	return traversal.BuildDocument(e.path.Nodes(), e.cat, e.filter.Visible(e.cat.Links()), e.cfg.Author, e.now())
}

// Drag applies one phase of a drag gesture at (x, y).
//
// The node is pinned under the pointer for the whole gesture and the
// simulation is held warm. On release, root and sector nodes stay pinned at
// the release point; every other tier is released to the forces.
func (e *Engine) Drag(id string, phase DragPhase, x, y float64) error {
	n, err := e.lookup(id)
	if err != nil {
		return err
	}

	switch phase {
	case DragStart:
		e.dragging[id] = e.now()
		n.Pin(x, y)
		e.sim.SetAlphaTarget(ReheatAlpha)
		e.sim.Restart()
		e.metrics.RecordReconfiguration("drag")
	case DragMove:
		if _, ok := e.dragging[id]; !ok {
			return fmt.Errorf("%w: %q", ErrNotDragging, id)
		}
		e.dragging[id] = e.now()
		n.Pin(x, y)
	case DragEnd:
		if _, ok := e.dragging[id]; !ok {
			return fmt.Errorf("%w: %q", ErrNotDragging, id)
		}
		e.release(n, x, y)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDragPhase, phase)
	}
	return nil
}

func (e *Engine) release(n *catalog.Node, x, y float64) {
	delete(e.dragging, n.ID)
	if n.Tier.PermanentlyPinned() {
		n.Pin(x, y)
	} else {
		n.SetPosition(x, y)
		n.Unpin()
	}
	if len(e.dragging) == 0 {
		e.sim.SetAlphaTarget(0)
	}
}

// expireDrags ends every drag with no start or move within DragTimeout.
func (e *Engine) expireDrags() {
	if e.cfg.DragTimeout <= 0 || len(e.dragging) == 0 {
		return
	}
	now := e.now()
	for id, seen := range e.dragging {
		if now.Sub(seen) < e.cfg.DragTimeout {
			continue
		}
		n, ok := e.cat.Node(id)
		if !ok {
			delete(e.dragging, id)
			continue
		}
		x, y, _ := n.Position()
		e.release(n, x, y)
		e.logger.Warn("drag timed out, releasing node", logging.NodeID(id))
	}
	if len(e.dragging) == 0 {
		e.sim.SetAlphaTarget(0)
	}
}

// Tick advances the simulation one step and reports whether it is still
// running.
func (e *Engine) Tick() bool {
	start := time.Now()
	e.expireDrags()
	if e.sim.Stopped() || e.sim.Converged() {
		return false
	}
	running := e.sim.Tick()
	e.metrics.RecordTick(e.sim.Alpha(), running, time.Since(start))
	if !running {
		e.logger.Debug("simulation converged", logging.Uint64("ticks", e.sim.Ticks()))
	}
	return running
}

// Running reports whether the next Tick would move anything.
func (e *Engine) Running() bool {
	return !e.sim.Stopped() && !e.sim.Converged()
}

// Stop halts the simulation. Positions are kept.
func (e *Engine) Stop() {
	e.sim.Stop()
}

// Frame snapshots positions and visible links for renderers.
func (e *Engine) Frame() visualization.Frame {
	f := visualization.BuildFrame(e.cat, e.filter, e.policy)
	f.Tick = e.sim.Ticks()
	f.Alpha = e.sim.Alpha()
	return f
}

// Policy returns the current force policy.
func (e *Engine) Policy() visualization.ForcePolicy {
	return e.policy
}

// Controls returns the current control settings.
func (e *Engine) Controls() Controls {
	eff := make(map[catalog.LinkType]float64, len(catalog.LinkTypes))
	for _, lt := range catalog.LinkTypes {
		eff[lt] = e.policy.LinkDistance(lt)
	}
	return Controls{
		VisibleLinkTypes: e.filter.Types(),
		Distances:        e.policy.Distances,
		Effective:        eff,
		Viewport:         e.policy.Viewport,
	}
}

// Node returns a copy of the node with the given id.
func (e *Engine) Node(id string) (catalog.Node, error) {
	n, err := e.lookup(id)
	if err != nil {
		return catalog.Node{}, err
	}
	return n.Clone(), nil
}

// Nodes returns copies of all nodes, optionally restricted to one tier.
func (e *Engine) Nodes(tier catalog.Tier) []catalog.Node {
	out := make([]catalog.Node, 0, e.cat.Len())
	for _, n := range e.cat.Nodes() {
		if tier == "" || n.Tier == tier {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Links returns the catalog links, or only the visible ones.
func (e *Engine) Links(visibleOnly bool) []catalog.Link {
	if visibleOnly {
		return e.filter.Visible(e.cat.Links())
	}
	out := make([]catalog.Link, len(e.cat.Links()))
	copy(out, e.cat.Links())
	return out
}

// Stats summarizes the catalog and simulation.
func (e *Engine) Stats() Stats {
	return Stats{
		Stats:        e.cat.Stats(),
		VisibleLinks: len(e.filter.Visible(e.cat.Links())),
		Unplaced:     len(e.unplaced),
		Alpha:        e.sim.Alpha(),
		Ticks:        e.sim.Ticks(),
		Running:      e.Running(),
		Traversal:    e.traversal,
		PathLength:   e.path.Len(),
	}
}

// HasRoot reports whether the catalog has a root node.
func (e *Engine) HasRoot() bool {
	_, ok := e.cat.Root()
	return ok
}

func (e *Engine) updateCatalogMetrics() {
	if e.metrics == nil {
		return
	}
	s := e.cat.Stats()
	tiers := make(map[string]int, len(s.NodesByTier))
	for t, n := range s.NodesByTier {
		tiers[string(t)] = n
	}
	types := make(map[string]int, len(s.LinksByType))
	for lt, n := range s.LinksByType {
		types[string(lt)] = n
	}
	e.metrics.UpdateCatalogMetrics(tiers, types, len(e.unplaced))
}
