package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/simulation"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

var (
	// ErrNotDragging is returned for drag moves or releases on a node that
	// has no drag in progress.
	ErrNotDragging = errors.New("node is not being dragged")

	// ErrStopped is returned by Controller calls after Run has returned.
	ErrStopped = errors.New("layout controller stopped")

	// ErrInvalidDragPhase is returned for drag phases other than start, move
	// and end.
	ErrInvalidDragPhase = errors.New("invalid drag phase")
)

// ReheatAlpha is the energy every reconfiguration restores, and the alpha
// target held while a drag is in progress.
const ReheatAlpha = 0.3

// Callbacks are the host hooks invoked on node activation. Both run on the
// engine's owning goroutine and must not block.
type Callbacks struct {
	OnNodeSelect func(node catalog.Node)
	OnPathUpdate func(path []catalog.Node)
}

// Config configures an Engine.
type Config struct {
	Viewport   visualization.Viewport
	Distances  visualization.DistanceSettings
	Layout     visualization.LayoutConfig
	Enabled    []catalog.LinkType // Flow types visible at start; nil enables all
	Seed       int64              // Seed for angular placement of outer tiers
	Simulation simulation.Config
	Author     string // Author written into path documents

	// DragTimeout releases a drag that has seen no start or move for this
	// long, as if it had ended where the node stands. Zero disables it.
	DragTimeout time.Duration
}

// DefaultConfig returns a 1000x1000 viewport with default forces and every
// flow type visible.
func DefaultConfig() Config {
	return Config{
		Viewport:   visualization.Viewport{Width: 1000, Height: 1000},
		Distances:  visualization.DefaultDistances(),
		Layout:     visualization.DefaultLayoutConfig(),
		Seed:       1,
		Simulation: simulation.DefaultConfig,
		Author:     "stratnet",

		DragTimeout: 10 * time.Second,
	}
}

// DragPhase is a step of a drag gesture.
type DragPhase string

const (
	DragStart DragPhase = "start"
	DragMove  DragPhase = "move"
	DragEnd   DragPhase = "end"
)

// ParseDragPhase validates a phase name.
func ParseDragPhase(s string) (DragPhase, error) {
	switch p := DragPhase(s); p {
	case DragStart, DragMove, DragEnd:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDragPhase, s)
	}
}

// Controls is the current state of the user-adjustable settings.
type Controls struct {
	VisibleLinkTypes []catalog.LinkType             `json:"visible_link_types"`
	Distances        visualization.DistanceSettings `json:"distances"`
	Effective        map[catalog.LinkType]float64   `json:"effective_distances"`
	Viewport         visualization.Viewport         `json:"viewport"`
}

// TraversalState reports path-building mode.
type TraversalState struct {
	Active bool           `json:"active"`
	Path   []catalog.Node `json:"path"`
}

// Stats summarizes the engine.
type Stats struct {
	catalog.Stats
	VisibleLinks int     `json:"visible_links"`
	Unplaced     int     `json:"unplaced"`
	Alpha        float64 `json:"alpha"`
	Ticks        uint64  `json:"ticks"`
	Running      bool    `json:"running"`
	Traversal    bool    `json:"traversal"`
	PathLength   int     `json:"path_length"`
}
