package catalog

// Tier is a node's position in the organizational hierarchy.
// Values outside the known set are kept as-is; consumers fall back to
// documented defaults instead of rejecting them.
type Tier string

const (
	TierRoot         Tier = "root"
	TierSector       Tier = "sector"
	TierSubsector    Tier = "subsector"
	TierOrganization Tier = "organization"
	TierDistribution Tier = "distribution"
	TierCommunity    Tier = "community"
)

// Tiers lists the known tiers from the center outwards.
var Tiers = []Tier{
	TierRoot,
	TierSector,
	TierSubsector,
	TierOrganization,
	TierDistribution,
	TierCommunity,
}

// Known reports whether t is one of the six hierarchy tiers.
func (t Tier) Known() bool {
	switch t {
	case TierRoot, TierSector, TierSubsector, TierOrganization, TierDistribution, TierCommunity:
		return true
	default:
		return false
	}
}

// Depth returns the ring index of the tier (root = 0). Unknown tiers
// return -1.
func (t Tier) Depth() int {
	switch t {
	case TierRoot:
		return 0
	case TierSector:
		return 1
	case TierSubsector:
		return 2
	case TierOrganization:
		return 3
	case TierDistribution:
		return 4
	case TierCommunity:
		return 5
	default:
		return -1
	}
}

// PermanentlyPinned reports whether nodes of this tier keep a fixed position
// for the lifetime of the layout.
func (t Tier) PermanentlyPinned() bool {
	return t == TierRoot || t == TierSector
}

// LinkType classifies a link.
type LinkType string

const (
	LinkStructure     LinkType = "structure"
	LinkGrantFlow     LinkType = "grant-flow"
	LinkServiceFlow   LinkType = "service-flow"
	LinkKnowledgeFlow LinkType = "knowledge-flow"
)

// LinkTypes lists every known link type.
var LinkTypes = []LinkType{
	LinkStructure,
	LinkGrantFlow,
	LinkServiceFlow,
	LinkKnowledgeFlow,
}

// FlowTypes lists the link types a user may toggle.
var FlowTypes = []LinkType{
	LinkGrantFlow,
	LinkServiceFlow,
	LinkKnowledgeFlow,
}

// Known reports whether lt is one of the four link types.
func (lt LinkType) Known() bool {
	switch lt {
	case LinkStructure, LinkGrantFlow, LinkServiceFlow, LinkKnowledgeFlow:
		return true
	default:
		return false
	}
}

// IsFlow reports whether lt is a toggleable flow type.
func (lt LinkType) IsFlow() bool {
	switch lt {
	case LinkGrantFlow, LinkServiceFlow, LinkKnowledgeFlow:
		return true
	default:
		return false
	}
}

// Node is a single organization, sector or community in the network.
//
// X, Y, Fx and Fy are nil until assigned. Fx/Fy non-nil means the node is
// pinned and immune to force-driven movement.
type Node struct {
	ID          string   `json:"id" validate:"required,max=128,ident"`
	Name        string   `json:"name" validate:"max=256"`
	Tier        Tier     `json:"type" validate:"max=64"`
	Color       string   `json:"color,omitempty" validate:"max=32"`
	Size        float64  `json:"size" validate:"gte=0"`
	Description string   `json:"description,omitempty"`
	Funding     string   `json:"funding,omitempty"`
	Population  string   `json:"population,omitempty"`
	Grants      []string `json:"grants,omitempty"`
	Channels    int      `json:"channels,omitempty" validate:"gte=0"`
	Needs       []string `json:"needs,omitempty"`

	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	Fx *float64 `json:"fx,omitempty"`
	Fy *float64 `json:"fy,omitempty"`
	Vx float64  `json:"vx,omitempty"`
	Vy float64  `json:"vy,omitempty"`
}

// Position returns the node's coordinates and whether it has been placed.
func (n *Node) Position() (x, y float64, ok bool) {
	if n.X == nil || n.Y == nil {
		return 0, 0, false
	}
	return *n.X, *n.Y, true
}

// Placed reports whether the node has coordinates.
func (n *Node) Placed() bool {
	return n.X != nil && n.Y != nil
}

// SetPosition assigns coordinates without touching the pin.
func (n *Node) SetPosition(x, y float64) {
	n.X = &x
	n.Y = &y
}

// Pin fixes the node at (x, y) and moves it there.
func (n *Node) Pin(x, y float64) {
	n.SetPosition(x, y)
	fx, fy := x, y
	n.Fx = &fx
	n.Fy = &fy
}

// Unpin releases the fixed position, keeping the current coordinates.
func (n *Node) Unpin() {
	n.Fx = nil
	n.Fy = nil
}

// Pinned reports whether the node has a fixed position.
func (n *Node) Pinned() bool {
	return n.Fx != nil && n.Fy != nil
}

// Link is a directed relationship between two nodes.
type Link struct {
	Source      string   `json:"source" validate:"required,max=128,ident"`
	Target      string   `json:"target" validate:"required,max=128,ident"`
	Type        LinkType `json:"type" validate:"required,max=64"`
	Description string   `json:"description,omitempty"`
}

// Key identifies a link for de-duplication.
func (l Link) Key() LinkKey {
	return LinkKey{Source: l.Source, Target: l.Target, Type: l.Type}
}

// LinkKey is the identity of a link.
type LinkKey struct {
	Source string
	Target string
	Type   LinkType
}

// Metadata describes a data set. All fields are informational.
type Metadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Author      string `json:"author,omitempty"`
	Created     string `json:"created,omitempty"`
	SnapshotID  string `json:"snapshot_id,omitempty"`
	NodeCount   int    `json:"nodes_count,omitempty"`
	LinkCount   int    `json:"links_count,omitempty"`
}

// Payload is the import/export document: {metadata?, nodes, links}.
type Payload struct {
	Metadata *Metadata `json:"metadata,omitempty"`
	Nodes    []Node    `json:"nodes" validate:"dive"`
	Links    []Link    `json:"links" validate:"dive"`
}
