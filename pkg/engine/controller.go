package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/traversal"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

// Control is the mutation and query surface hosts use. Every call is
// executed on the controller goroutine in arrival order.
type Control interface {
	SetVisibleLinkTypes(ctx context.Context, types []catalog.LinkType) error
	SetLinkDistances(ctx context.Context, values map[catalog.LinkType]float64) error
	ResetLinkDistances(ctx context.Context) error
	Resize(ctx context.Context, width, height float64) error
	ExportSnapshot(ctx context.Context) (catalog.Payload, error)
	ImportData(ctx context.Context, p *catalog.Payload) (*catalog.MergeResult, error)
	Activate(ctx context.Context, id string) error
	Drag(ctx context.Context, id string, phase DragPhase, x, y float64) error
	SetTraversalMode(ctx context.Context, on bool) error
	ClearPath(ctx context.Context) error
	Traversal(ctx context.Context) (TraversalState, error)
	PathDocument(ctx context.Context) (*traversal.Document, error)
	Frame(ctx context.Context) (visualization.Frame, error)
	Controls(ctx context.Context) (Controls, error)
	Stats(ctx context.Context) (Stats, error)
	Node(ctx context.Context, id string) (catalog.Node, error)
	Nodes(ctx context.Context, tier catalog.Tier) ([]catalog.Node, error)
	Links(ctx context.Context, visibleOnly bool) ([]catalog.Link, error)
}

// ControllerConfig configures the tick loop.
type ControllerConfig struct {
	TickInterval time.Duration             // Time between simulation steps
	QueueSize    int                       // Pending command capacity
	OnFrame      func(visualization.Frame) // Called after every step that moved nodes
	Logger       logging.Logger
}

// DefaultTickInterval is roughly one display frame.
const DefaultTickInterval = 16 * time.Millisecond

type command func(*Engine)

// Controller runs an Engine on a single goroutine. Commands queue on a
// channel; before each tick every queued command is applied, so a burst of
// control changes always lands before the next step reads the forces.
type Controller struct {
	eng      *Engine
	cmds     chan command
	interval time.Duration
	onFrame  func(visualization.Frame)
	logger   logging.Logger

	running  atomic.Bool
	runOnce  sync.Once
	stopped  chan struct{}
	lastTick atomic.Int64
}

var _ Control = (*Controller)(nil)

// NewController wraps eng. The engine must not be used directly afterwards.
func NewController(eng *Engine, cfg ControllerConfig) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Controller{
		eng:      eng,
		cmds:     make(chan command, cfg.QueueSize),
		interval: cfg.TickInterval,
		onFrame:  cfg.OnFrame,
		logger:   cfg.Logger.With(logging.Component("controller")),
		stopped:  make(chan struct{}),
	}
}

// Run owns the engine until ctx is cancelled, then stops the simulation and
// returns. It may be called once.
func (c *Controller) Run(ctx context.Context) error {
	first := false
	c.runOnce.Do(func() { first = true })
	if !first {
		return ErrStopped
	}

	c.running.Store(true)
	ticker := time.NewTicker(c.interval)
	defer func() {
		ticker.Stop()
		c.eng.Stop()
		c.drain()
		c.running.Store(false)
		close(c.stopped)
		c.logger.Info("layout controller stopped")
	}()

	c.logger.Info("layout controller started", logging.Duration("interval", c.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.cmds:
			cmd(c.eng)
			c.drain()
		case <-ticker.C:
			c.step()
		}
	}
}

// step drains pending commands and advances the simulation once.
func (c *Controller) step() {
	c.drain()
	c.lastTick.Store(time.Now().UnixNano())
	if c.eng.Tick() && c.onFrame != nil {
		c.onFrame(c.eng.Frame())
	}
}

func (c *Controller) drain() {
	for {
		select {
		case cmd := <-c.cmds:
			cmd(c.eng)
		default:
			return
		}
	}
}

// Running reports whether Run is active.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// LastTick returns when the loop last attempted a step.
func (c *Controller) LastTick() time.Time {
	ns := c.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Command states. A queued command either starts or is abandoned by its
// caller, never both.
const (
	cmdPending int32 = iota
	cmdStarted
	cmdAbandoned
)

// Do runs fn on the engine goroutine and waits for it to finish. If ctx ends
// or the controller stops before fn starts, fn is skipped and the error is
// returned. Once fn has started, Do waits for its result so a reported
// failure never hides an applied change.
func (c *Controller) Do(ctx context.Context, fn func(*Engine) error) error {
	var state atomic.Int32
	done := make(chan error, 1)
	cmd := func(e *Engine) {
		if state.CompareAndSwap(cmdPending, cmdStarted) {
			done <- fn(e)
		}
	}

	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}

	var abandon error
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		abandon = ctx.Err()
	case <-c.stopped:
		abandon = ErrStopped
	}
	if state.CompareAndSwap(cmdPending, cmdAbandoned) {
		return abandon
	}
	return <-done
}

func query[T any](ctx context.Context, c *Controller, fn func(*Engine) (T, error)) (T, error) {
	var out T
	err := c.Do(ctx, func(e *Engine) error {
		var err error
		out, err = fn(e)
		return err
	})
	return out, err
}

func (c *Controller) SetVisibleLinkTypes(ctx context.Context, types []catalog.LinkType) error {
	return c.Do(ctx, func(e *Engine) error { return e.SetVisibleLinkTypes(types) })
}

func (c *Controller) SetLinkDistances(ctx context.Context, values map[catalog.LinkType]float64) error {
	return c.Do(ctx, func(e *Engine) error { return e.SetLinkDistances(values) })
}

func (c *Controller) ResetLinkDistances(ctx context.Context) error {
	return c.Do(ctx, func(e *Engine) error { e.ResetLinkDistances(); return nil })
}

func (c *Controller) Resize(ctx context.Context, width, height float64) error {
	return c.Do(ctx, func(e *Engine) error { return e.Resize(width, height) })
}

func (c *Controller) ExportSnapshot(ctx context.Context) (catalog.Payload, error) {
	return query(ctx, c, func(e *Engine) (catalog.Payload, error) { return e.ExportSnapshot(), nil })
}

func (c *Controller) ImportData(ctx context.Context, p *catalog.Payload) (*catalog.MergeResult, error) {
	return query(ctx, c, func(e *Engine) (*catalog.MergeResult, error) { return e.ImportData(p) })
}

func (c *Controller) Activate(ctx context.Context, id string) error {
	return c.Do(ctx, func(e *Engine) error { return e.Activate(id) })
}

func (c *Controller) Drag(ctx context.Context, id string, phase DragPhase, x, y float64) error {
	return c.Do(ctx, func(e *Engine) error { return e.Drag(id, phase, x, y) })
}

func (c *Controller) SetTraversalMode(ctx context.Context, on bool) error {
	return c.Do(ctx, func(e *Engine) error { e.SetTraversalMode(on); return nil })
}

func (c *Controller) ClearPath(ctx context.Context) error {
	return c.Do(ctx, func(e *Engine) error { e.ClearPath(); return nil })
}

func (c *Controller) Traversal(ctx context.Context) (TraversalState, error) {
	return query(ctx, c, func(e *Engine) (TraversalState, error) {
		return TraversalState{Active: e.TraversalMode(), Path: e.Path()}, nil
	})
}

func (c *Controller) PathDocument(ctx context.Context) (*traversal.Document, error) {
	return query(ctx, c, func(e *Engine) (*traversal.Document, error) { return e.PathDocument() })
}

func (c *Controller) Frame(ctx context.Context) (visualization.Frame, error) {
	return query(ctx, c, func(e *Engine) (visualization.Frame, error) { return e.Frame(), nil })
}

func (c *Controller) Controls(ctx context.Context) (Controls, error) {
	return query(ctx, c, func(e *Engine) (Controls, error) { return e.Controls(), nil })
}

func (c *Controller) Stats(ctx context.Context) (Stats, error) {
	return query(ctx, c, func(e *Engine) (Stats, error) { return e.Stats(), nil })
}

func (c *Controller) Node(ctx context.Context, id string) (catalog.Node, error) {
	return query(ctx, c, func(e *Engine) (catalog.Node, error) { return e.Node(id) })
}

func (c *Controller) Nodes(ctx context.Context, tier catalog.Tier) ([]catalog.Node, error) {
	return query(ctx, c, func(e *Engine) ([]catalog.Node, error) { return e.Nodes(tier), nil })
}

func (c *Controller) Links(ctx context.Context, visibleOnly bool) ([]catalog.Link, error) {
	return query(ctx, c, func(e *Engine) ([]catalog.Link, error) { return e.Links(visibleOnly), nil })
}

// HasRoot reports whether the catalog has a root node.
func (c *Controller) HasRoot(ctx context.Context) (bool, error) {
	return query(ctx, c, func(e *Engine) (bool, error) { return e.HasRoot(), nil })
}
