package catalog

import "sort"

// Catalog is the ordered node/link collection of one network.
//
// A Catalog is not safe for concurrent use; it is owned by the layout engine
// and mutated only through it.
type Catalog struct {
	Metadata Metadata
	nodes    []*Node
	links    []Link
	index    map[string]*Node
	linkKeys map[LinkKey]struct{}
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		index:    make(map[string]*Node),
		linkKeys: make(map[LinkKey]struct{}),
	}
}

// Nodes returns the nodes in insertion order. The slice is shared with the
// catalog; callers must not append to it.
func (c *Catalog) Nodes() []*Node {
	return c.nodes
}

// Links returns the links in insertion order.
func (c *Catalog) Links() []Link {
	return c.links
}

// Node looks up a node by id.
func (c *Catalog) Node(id string) (*Node, bool) {
	n, ok := c.index[id]
	return n, ok
}

// Len returns the number of nodes.
func (c *Catalog) Len() int {
	return len(c.nodes)
}

// Root returns the root node, if any.
func (c *Catalog) Root() (*Node, bool) {
	for _, n := range c.nodes {
		if n.Tier == TierRoot {
			return n, true
		}
	}
	return nil, false
}

// NodesByTier returns the nodes of tier t in insertion order.
func (c *Catalog) NodesByTier(t Tier) []*Node {
	var out []*Node
	for _, n := range c.nodes {
		if n.Tier == t {
			out = append(out, n)
		}
	}
	return out
}

func (c *Catalog) addNode(n *Node) {
	c.nodes = append(c.nodes, n)
	c.index[n.ID] = n
}

func (c *Catalog) addLink(l Link) bool {
	k := l.Key()
	if _, dup := c.linkKeys[k]; dup {
		return false
	}
	c.linkKeys[k] = struct{}{}
	c.links = append(c.links, l)
	return true
}

// Clone returns a deep copy, including live layout state.
func (c *Catalog) Clone() *Catalog {
	out := New()
	out.Metadata = c.Metadata
	for _, n := range c.nodes {
		out.addNode(cloneNode(n))
	}
	for _, l := range c.links {
		out.addLink(l)
	}
	return out
}

// Payload renders the catalog as an export document. Nodes are copied so the
// result stays stable while the simulation keeps running.
func (c *Catalog) Payload() Payload {
	p := Payload{
		Nodes: make([]Node, 0, len(c.nodes)),
		Links: make([]Link, len(c.links)),
	}
	for _, n := range c.nodes {
		p.Nodes = append(p.Nodes, *cloneNode(n))
	}
	copy(p.Links, c.links)
	meta := c.Metadata
	meta.NodeCount = len(p.Nodes)
	meta.LinkCount = len(p.Links)
	p.Metadata = &meta
	return p
}

// Stats summarizes the catalog.
type Stats struct {
	Nodes       int              `json:"nodes"`
	Links       int              `json:"links"`
	LinksByType map[LinkType]int `json:"links_by_type"`
	NodesByTier map[Tier]int     `json:"nodes_by_tier"`
}

// Stats counts nodes per tier and links per type.
func (c *Catalog) Stats() Stats {
	s := Stats{
		Nodes:       len(c.nodes),
		Links:       len(c.links),
		LinksByType: make(map[LinkType]int),
		NodesByTier: make(map[Tier]int),
	}
	for _, n := range c.nodes {
		s.NodesByTier[n.Tier]++
	}
	for _, l := range c.links {
		s.LinksByType[l.Type]++
	}
	return s
}

// IDs returns the sorted node ids.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.nodes))
	for _, n := range c.nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() Node {
	return *cloneNode(n)
}

func cloneNode(n *Node) *Node {
	cp := *n
	cp.Grants = cloneStrings(n.Grants)
	cp.Needs = cloneStrings(n.Needs)
	cp.X = cloneFloat(n.X)
	cp.Y = cloneFloat(n.Y)
	cp.Fx = cloneFloat(n.Fx)
	cp.Fy = cloneFloat(n.Fy)
	return &cp
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
