package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

var nodeType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Node",
	Description: "An organization, sector or community in the network",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":        &graphql.Field{Type: graphql.String},
		"type":        &graphql.Field{Type: graphql.String},
		"color":       &graphql.Field{Type: graphql.String},
		"size":        &graphql.Field{Type: graphql.Float},
		"description": &graphql.Field{Type: graphql.String},
		"funding":     &graphql.Field{Type: graphql.String},
		"population":  &graphql.Field{Type: graphql.String},
		"grants":      &graphql.Field{Type: graphql.NewList(graphql.String)},
		"channels":    &graphql.Field{Type: graphql.Int},
		"needs":       &graphql.Field{Type: graphql.NewList(graphql.String)},
		"x":           &graphql.Field{Type: graphql.Float},
		"y":           &graphql.Field{Type: graphql.Float},
		"pinned":      &graphql.Field{Type: graphql.Boolean},
	},
})

var linkType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Link",
	Fields: graphql.Fields{
		"source":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"target":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"type":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
	},
})

var countType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Count",
	Fields: graphql.Fields{
		"key":   &graphql.Field{Type: graphql.String},
		"count": &graphql.Field{Type: graphql.Int},
	},
})

var statsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Stats",
	Fields: graphql.Fields{
		"nodes":        &graphql.Field{Type: graphql.Int},
		"links":        &graphql.Field{Type: graphql.Int},
		"visibleLinks": &graphql.Field{Type: graphql.Int},
		"unplaced":     &graphql.Field{Type: graphql.Int},
		"alpha":        &graphql.Field{Type: graphql.Float},
		"ticks":        &graphql.Field{Type: graphql.Float},
		"running":      &graphql.Field{Type: graphql.Boolean},
		"traversal":    &graphql.Field{Type: graphql.Boolean},
		"pathLength":   &graphql.Field{Type: graphql.Int},
		"nodesByTier":  &graphql.Field{Type: graphql.NewList(countType)},
		"linksByType":  &graphql.Field{Type: graphql.NewList(countType)},
	},
})

var distancesType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Distances",
	Fields: graphql.Fields{
		"structure":     &graphql.Field{Type: graphql.Float},
		"grantFlow":     &graphql.Field{Type: graphql.Float},
		"serviceFlow":   &graphql.Field{Type: graphql.Float},
		"knowledgeFlow": &graphql.Field{Type: graphql.Float},
	},
})

var viewportType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Viewport",
	Fields: graphql.Fields{
		"width":  &graphql.Field{Type: graphql.Float},
		"height": &graphql.Field{Type: graphql.Float},
	},
})

var controlsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Controls",
	Fields: graphql.Fields{
		"visibleLinkTypes":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		"distances":          &graphql.Field{Type: distancesType},
		"effectiveDistances": &graphql.Field{Type: distancesType},
		"viewport":           &graphql.Field{Type: viewportType},
	},
})

func nodeToMap(n catalog.Node) map[string]any {
	m := map[string]any{
		"id":          n.ID,
		"name":        n.Name,
		"type":        string(n.Tier),
		"color":       n.Color,
		"size":        n.Size,
		"description": n.Description,
		"funding":     n.Funding,
		"population":  n.Population,
		"grants":      n.Grants,
		"channels":    n.Channels,
		"needs":       n.Needs,
		"pinned":      n.Pinned(),
	}
	if x, y, ok := n.Position(); ok {
		m["x"] = x
		m["y"] = y
	}
	return m
}

func nodesToList(nodes []catalog.Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = nodeToMap(n)
	}
	return out
}

func linkToMap(l catalog.Link) map[string]any {
	return map[string]any{
		"source":      l.Source,
		"target":      l.Target,
		"type":        string(l.Type),
		"description": l.Description,
	}
}

func countsToList[K ~string](counts map[K]int, order []K) []any {
	out := make([]any, 0, len(counts))
	seen := make(map[K]bool, len(order))
	for _, k := range order {
		seen[k] = true
		if n, ok := counts[k]; ok {
			out = append(out, map[string]any{"key": string(k), "count": n})
		}
	}
	for k, n := range counts {
		if !seen[k] {
			out = append(out, map[string]any{"key": string(k), "count": n})
		}
	}
	return out
}

func statsToMap(s engine.Stats) map[string]any {
	return map[string]any{
		"nodes":        s.Nodes,
		"links":        s.Links,
		"visibleLinks": s.VisibleLinks,
		"unplaced":     s.Unplaced,
		"alpha":        s.Alpha,
		"ticks":        float64(s.Ticks),
		"running":      s.Running,
		"traversal":    s.Traversal,
		"pathLength":   s.PathLength,
		"nodesByTier":  countsToList(s.NodesByTier, catalog.Tiers),
		"linksByType":  countsToList(s.LinksByType, catalog.LinkTypes),
	}
}

func distancesToMap(get func(catalog.LinkType) float64) map[string]any {
	return map[string]any{
		"structure":     get(catalog.LinkStructure),
		"grantFlow":     get(catalog.LinkGrantFlow),
		"serviceFlow":   get(catalog.LinkServiceFlow),
		"knowledgeFlow": get(catalog.LinkKnowledgeFlow),
	}
}

func controlsToMap(c engine.Controls) map[string]any {
	types := make([]any, len(c.VisibleLinkTypes))
	for i, lt := range c.VisibleLinkTypes {
		types[i] = string(lt)
	}
	return map[string]any{
		"visibleLinkTypes":   types,
		"distances":          distancesToMap(c.Distances.Base),
		"effectiveDistances": distancesToMap(func(lt catalog.LinkType) float64 { return c.Effective[lt] }),
		"viewport":           viewportToMap(c.Viewport),
	}
}

func viewportToMap(v visualization.Viewport) map[string]any {
	return map[string]any{"width": v.Width, "height": v.Height}
}
