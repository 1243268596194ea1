package visualization

import (
	"encoding/json"

	"github.com/dd0wney/stratnet/pkg/catalog"
)

// FrameNode is the render state of one node.
type FrameNode struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Tier   catalog.Tier `json:"type"`
	Color  string       `json:"color,omitempty"`
	Radius float64      `json:"radius"`
	X      *float64     `json:"x"`
	Y      *float64     `json:"y"`
	Pinned bool         `json:"pinned"`
}

// FrameLink is a visible link with its effective distance.
type FrameLink struct {
	Source   string           `json:"source"`
	Target   string           `json:"target"`
	Type     catalog.LinkType `json:"type"`
	Distance float64          `json:"distance"`
}

// Frame is what a renderer needs to draw one tick: node positions and the
// visible links.
type Frame struct {
	Tick     uint64      `json:"tick"`
	Alpha    float64     `json:"alpha"`
	Viewport Viewport    `json:"viewport"`
	Nodes    []FrameNode `json:"nodes"`
	Links    []FrameLink `json:"links"`
}

// BuildFrame snapshots the catalog. Positions are copied, so the frame stays
// valid while the simulation keeps moving nodes.
func BuildFrame(cat *catalog.Catalog, filter LinkFilter, policy ForcePolicy) Frame {
	f := Frame{
		Viewport: policy.Viewport,
		Nodes:    make([]FrameNode, 0, cat.Len()),
	}

	for _, n := range cat.Nodes() {
		fn := FrameNode{
			ID:     n.ID,
			Name:   n.Name,
			Tier:   n.Tier,
			Color:  n.Color,
			Radius: policy.CollisionRadius(n),
			Pinned: n.Pinned(),
		}
		if x, y, ok := n.Position(); ok {
			fn.X, fn.Y = &x, &y
		}
		f.Nodes = append(f.Nodes, fn)
	}

	visible := filter.Visible(cat.Links())
	f.Links = make([]FrameLink, 0, len(visible))
	for _, l := range visible {
		f.Links = append(f.Links, FrameLink{
			Source:   l.Source,
			Target:   l.Target,
			Type:     l.Type,
			Distance: policy.LinkDistance(l.Type),
		})
	}
	return f
}

// ExportJSON encodes the frame.
func (f Frame) ExportJSON() ([]byte, error) {
	return json.Marshal(f)
}

// Position looks up a node in the frame.
func (f Frame) Position(id string) (Position, bool) {
	for _, n := range f.Nodes {
		if n.ID == id && n.X != nil && n.Y != nil {
			return Position{X: *n.X, Y: *n.Y}, true
		}
	}
	return Position{}, false
}
