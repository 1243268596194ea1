// Package traversal holds the path-building list and renders it as an
// analysis document.
package traversal

// Path is an ordered list of distinct node ids.
type Path struct {
	ids  []string
	seen map[string]struct{}
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{seen: make(map[string]struct{})}
}

// Append adds id to the end of the path. It reports false and leaves the path
// unchanged if id is already present.
func (p *Path) Append(id string) bool {
	if _, dup := p.seen[id]; dup {
		return false
	}
	p.seen[id] = struct{}{}
	p.ids = append(p.ids, id)
	return true
}

// Contains reports whether id is on the path.
func (p *Path) Contains(id string) bool {
	_, ok := p.seen[id]
	return ok
}

// Nodes returns a copy of the ids in order.
func (p *Path) Nodes() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// Len returns the number of nodes on the path.
func (p *Path) Len() int {
	return len(p.ids)
}

// Reset empties the path.
func (p *Path) Reset() {
	p.ids = nil
	p.seen = make(map[string]struct{})
}
