// Package graphql exposes the layout engine as a GraphQL schema: catalog
// queries, statistics and the control mutations.
package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
)

// NewSchema builds the schema over ctl. Every resolver goes through ctl
// with the request context.
func NewSchema(ctl engine.Control) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"nodes": &graphql.Field{
				Type:        graphql.NewList(nodeType),
				Description: "All nodes, optionally restricted to one tier",
				Args: graphql.FieldConfigArgument{
					"tier": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					tier, _ := p.Args["tier"].(string)
					nodes, err := ctl.Nodes(p.Context, catalog.Tier(tier))
					if err != nil {
						return nil, err
					}
					return nodesToList(nodes), nil
				},
			},
			"node": &graphql.Field{
				Type: nodeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					n, err := ctl.Node(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return nodeToMap(n), nil
				},
			},
			"links": &graphql.Field{
				Type: graphql.NewList(linkType),
				Args: graphql.FieldConfigArgument{
					"visibleOnly": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"type":        &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					visibleOnly, _ := p.Args["visibleOnly"].(bool)
					lt, _ := p.Args["type"].(string)
					links, err := ctl.Links(p.Context, visibleOnly)
					if err != nil {
						return nil, err
					}
					out := make([]any, 0, len(links))
					for _, l := range links {
						if lt == "" || string(l.Type) == lt {
							out = append(out, linkToMap(l))
						}
					}
					return out, nil
				},
			},
			"path": &graphql.Field{
				Type:        graphql.NewList(nodeType),
				Description: "Nodes collected in traversal mode, in order",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					st, err := ctl.Traversal(p.Context)
					if err != nil {
						return nil, err
					}
					return nodesToList(st.Path), nil
				},
			},
			"stats": &graphql.Field{
				Type: statsType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s, err := ctl.Stats(p.Context)
					if err != nil {
						return nil, err
					}
					return statsToMap(s), nil
				},
			},
			"controls": &graphql.Field{
				Type:    controlsType,
				Resolve: controlsResolver(ctl),
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: newMutationType(ctl),
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func controlsResolver(ctl engine.Control) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		c, err := ctl.Controls(p.Context)
		if err != nil {
			return nil, err
		}
		return controlsToMap(c), nil
	}
}
