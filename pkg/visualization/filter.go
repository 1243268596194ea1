package visualization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/stratnet/pkg/catalog"
)

// LinkFilter is the set of enabled flow types. Structure links are always
// visible and cannot be disabled; unknown link types are never visible.
type LinkFilter struct {
	grant     bool
	service   bool
	knowledge bool
}

// AllFlows enables every flow type.
func AllFlows() LinkFilter {
	return LinkFilter{grant: true, service: true, knowledge: true}
}

// NewLinkFilter enables exactly the given types. Structure is accepted and
// ignored; unknown types are rejected.
func NewLinkFilter(types ...catalog.LinkType) (LinkFilter, error) {
	var f LinkFilter
	for _, lt := range types {
		switch lt {
		case catalog.LinkStructure:
		case catalog.LinkGrantFlow:
			f.grant = true
		case catalog.LinkServiceFlow:
			f.service = true
		case catalog.LinkKnowledgeFlow:
			f.knowledge = true
		default:
			return LinkFilter{}, fmt.Errorf("%w: %q", ErrUnknownLinkType, lt)
		}
	}
	return f, nil
}

// Enabled reports whether links of type lt pass the filter.
func (f LinkFilter) Enabled(lt catalog.LinkType) bool {
	switch lt {
	case catalog.LinkStructure:
		return true
	case catalog.LinkGrantFlow:
		return f.grant
	case catalog.LinkServiceFlow:
		return f.service
	case catalog.LinkKnowledgeFlow:
		return f.knowledge
	default:
		return false
	}
}

// Types lists the enabled flow types in canonical order.
func (f LinkFilter) Types() []catalog.LinkType {
	out := make([]catalog.LinkType, 0, len(catalog.FlowTypes))
	for _, lt := range catalog.FlowTypes {
		if f.Enabled(lt) {
			out = append(out, lt)
		}
	}
	return out
}

// Toggle flips a flow type. Structure and unknown types are unaffected.
func (f LinkFilter) Toggle(lt catalog.LinkType) LinkFilter {
	switch lt {
	case catalog.LinkGrantFlow:
		f.grant = !f.grant
	case catalog.LinkServiceFlow:
		f.service = !f.service
	case catalog.LinkKnowledgeFlow:
		f.knowledge = !f.knowledge
	}
	return f
}

// Visible returns structure links plus links of enabled flow types, in
// catalog order.
func (f LinkFilter) Visible(links []catalog.Link) []catalog.Link {
	out := make([]catalog.Link, 0, len(links))
	for _, l := range links {
		if f.Enabled(l.Type) {
			out = append(out, l)
		}
	}
	return out
}

// String renders the enabled types, e.g. "grant-flow,service-flow".
func (f LinkFilter) String() string {
	types := f.Types()
	names := make([]string, len(types))
	for i, lt := range types {
		names[i] = string(lt)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
