package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dd0wney/stratnet/pkg/validation"
)

// ParsePayload decodes an import document. It rejects invalid JSON and
// documents without a nodes or links array.
func ParsePayload(data []byte) (*Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, invalid(ErrInvalidPayload, "", "empty document")
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, invalid(ErrInvalidPayload, "", "malformed JSON: %v", err)
	}
	if p.Nodes == nil {
		return nil, invalid(ErrInvalidPayload, "nodes", "field is required")
	}
	if p.Links == nil {
		return nil, invalid(ErrInvalidPayload, "links", "field is required")
	}
	return &p, nil
}

// MergeResult reports what a merge changed.
type MergeResult struct {
	NodesAdded   int      `json:"nodes_added"`
	NodesUpdated int      `json:"nodes_updated"`
	LinksAdded   int      `json:"links_added"`
	Added        []string `json:"added,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Merge validates p against the current catalog and, only if every check
// passes, applies it. A rejected payload leaves the catalog untouched.
//
// Nodes whose id already exists are updated in place: descriptive fields are
// replaced, the live position is kept unless the payload supplies one.
// Links are de-duplicated by (source, target, type).
func (c *Catalog) Merge(p *Payload) (*MergeResult, error) {
	if err := c.validateMerge(p); err != nil {
		return nil, err
	}

	res := &MergeResult{}
	for i := range p.Nodes {
		in := cloneNode(&p.Nodes[i])
		if cur, ok := c.index[in.ID]; ok {
			updateNode(cur, in)
			res.NodesUpdated++
			continue
		}
		c.addNode(in)
		res.NodesAdded++
		res.Added = append(res.Added, in.ID)
	}
	for _, l := range p.Links {
		if c.addLink(l) {
			res.LinksAdded++
		}
	}
	if p.Metadata != nil && c.Metadata.Name == "" {
		c.Metadata = *p.Metadata
	}

	res.Warnings = c.Check().Findings()
	return res, nil
}

// FromPayload builds a fresh catalog from p.
func FromPayload(p *Payload) (*Catalog, error) {
	c := New()
	if _, err := c.Merge(p); err != nil {
		return nil, err
	}
	if p.Metadata != nil {
		c.Metadata = *p.Metadata
	}
	return c, nil
}

func (c *Catalog) validateMerge(p *Payload) error {
	if p == nil {
		return invalid(ErrInvalidPayload, "", "nil payload")
	}
	if p.Nodes == nil {
		return invalid(ErrInvalidPayload, "nodes", "field is required")
	}
	if p.Links == nil {
		return invalid(ErrInvalidPayload, "links", "field is required")
	}
	if err := validation.Struct(p); err != nil {
		return &ValidationError{Reason: err.Error(), Err: ErrInvalidPayload}
	}

	tiers := make(map[string]Tier, len(c.index)+len(p.Nodes))
	for id, n := range c.index {
		tiers[id] = n.Tier
	}
	seen := make(map[string]struct{}, len(p.Nodes))
	for i, n := range p.Nodes {
		if _, dup := seen[n.ID]; dup {
			return invalid(ErrDuplicateNode, fmt.Sprintf("nodes[%d].id", i), "%q appears more than once", n.ID)
		}
		seen[n.ID] = struct{}{}
		tiers[n.ID] = n.Tier
	}

	for i, l := range p.Links {
		if _, ok := tiers[l.Source]; !ok {
			return invalid(ErrDanglingLink, fmt.Sprintf("links[%d].source", i), "%q does not exist", l.Source)
		}
		if _, ok := tiers[l.Target]; !ok {
			return invalid(ErrDanglingLink, fmt.Sprintf("links[%d].target", i), "%q does not exist", l.Target)
		}
	}

	var roots []string
	for id, t := range tiers {
		if t == TierRoot {
			roots = append(roots, id)
		}
	}
	if len(roots) > 1 {
		return invalid(ErrSecondRoot, "nodes", "%d root nodes after merge", len(roots))
	}
	return nil
}

// updateNode overwrites cur's descriptive fields with in. Live position and
// velocity survive unless in carries coordinates. Root and sector nodes stay
// pinned where they are; a node demoted out of those tiers is released.
func updateNode(cur, in *Node) {
	prev := *cur
	*cur = *in
	moved := in.Placed()
	if !moved {
		cur.X, cur.Y = prev.X, prev.Y
		cur.Vx, cur.Vy = prev.Vx, prev.Vy
	}
	if in.Pinned() {
		return
	}
	cur.Fx, cur.Fy = prev.Fx, prev.Fy

	switch {
	case cur.Tier.PermanentlyPinned():
		if x, y, ok := cur.Position(); ok && (moved || !cur.Pinned()) {
			cur.Pin(x, y)
		}
	case prev.Tier.PermanentlyPinned():
		cur.Unpin()
	}
}
