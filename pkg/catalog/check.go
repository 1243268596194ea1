package catalog

import (
	"fmt"
	"sort"
)

// Report lists invariant findings for a catalog. Findings are advisory: the
// layout degrades gracefully for every one of them.
type Report struct {
	Roots       []string `json:"roots"`
	Unreachable []string `json:"unreachable,omitempty"`
	UnknownTier []string `json:"unknown_tier,omitempty"`
	UnknownLink []int    `json:"unknown_link_type,omitempty"`
}

// Findings renders the report as human readable lines.
func (r Report) Findings() []string {
	var out []string
	if len(r.Roots) != 1 {
		out = append(out, fmt.Sprintf("expected exactly one root node, found %d", len(r.Roots)))
	}
	for _, id := range r.Unreachable {
		out = append(out, fmt.Sprintf("node %q is not reachable from the root via structure links", id))
	}
	for _, id := range r.UnknownTier {
		out = append(out, fmt.Sprintf("node %q has an unrecognized tier", id))
	}
	for _, i := range r.UnknownLink {
		out = append(out, fmt.Sprintf("link %d has an unrecognized type", i))
	}
	return out
}

// OK reports whether the catalog satisfies every invariant.
func (r Report) OK() bool {
	return len(r.Findings()) == 0
}

// Check walks the hierarchy and reports invariant violations.
func (c *Catalog) Check() Report {
	var r Report
	for _, n := range c.nodes {
		if n.Tier == TierRoot {
			r.Roots = append(r.Roots, n.ID)
		}
		if !n.Tier.Known() {
			r.UnknownTier = append(r.UnknownTier, n.ID)
		}
	}
	for i, l := range c.links {
		if !l.Type.Known() {
			r.UnknownLink = append(r.UnknownLink, i)
		}
	}

	reached := make(map[string]bool, len(c.nodes))
	children := c.structureChildren()
	queue := append([]string(nil), r.Roots...)
	for _, id := range queue {
		reached[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if !reached[child] {
				reached[child] = true
				queue = append(queue, child)
			}
		}
	}
	for _, n := range c.nodes {
		if !reached[n.ID] {
			r.Unreachable = append(r.Unreachable, n.ID)
		}
	}
	sort.Strings(r.Unreachable)
	return r
}

func (c *Catalog) structureChildren() map[string][]string {
	out := make(map[string][]string)
	for _, l := range c.links {
		if l.Type == LinkStructure {
			out[l.Source] = append(out[l.Source], l.Target)
		}
	}
	return out
}

func (c *Catalog) structureParents() map[string][]string {
	out := make(map[string][]string)
	for _, l := range c.links {
		if l.Type == LinkStructure {
			out[l.Target] = append(out[l.Target], l.Source)
		}
	}
	return out
}

// Hierarchy answers ancestor queries over structure links. Build it once per
// layout pass with Catalog.Hierarchy.
type Hierarchy struct {
	cat     *Catalog
	parents map[string][]string
}

// Hierarchy snapshots the structure links of c.
func (c *Catalog) Hierarchy() *Hierarchy {
	return &Hierarchy{cat: c, parents: c.structureParents()}
}

// SectorOf returns the nearest sector-tier ancestor of id, following
// structure links upwards breadth-first. A sector node is its own sector.
func (h *Hierarchy) SectorOf(id string) (*Node, bool) {
	visited := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if n, ok := h.cat.index[cur]; ok && n.Tier == TierSector {
			return n, true
		}
		for _, p := range h.parents[cur] {
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
	}
	return nil, false
}
