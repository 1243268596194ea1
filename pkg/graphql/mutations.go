package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
)

// newMutationType wires the control mutations. Each returns the controls as
// they stand after the change.
func newMutationType(ctl engine.Control) *graphql.Object {
	after := controlsResolver(ctl)

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"setVisibleLinkTypes": &graphql.Field{
				Type:        controlsType,
				Description: "Replace the visible flow types; structure links are always shown",
				Args: graphql.FieldConfigArgument{
					"types": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					raw, _ := p.Args["types"].([]any)
					types := make([]catalog.LinkType, 0, len(raw))
					for _, v := range raw {
						types = append(types, catalog.LinkType(v.(string)))
					}
					if err := ctl.SetVisibleLinkTypes(p.Context, types); err != nil {
						return nil, err
					}
					return after(p)
				},
			},
			"setLinkDistance": &graphql.Field{
				Type: controlsType,
				Args: graphql.FieldConfigArgument{
					"type":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"distance": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					lt := catalog.LinkType(p.Args["type"].(string))
					d := p.Args["distance"].(float64)
					if err := ctl.SetLinkDistances(p.Context, map[catalog.LinkType]float64{lt: d}); err != nil {
						return nil, err
					}
					return after(p)
				},
			},
			"resetLinkDistances": &graphql.Field{
				Type: controlsType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if err := ctl.ResetLinkDistances(p.Context); err != nil {
						return nil, err
					}
					return after(p)
				},
			},
			"resize": &graphql.Field{
				Type: controlsType,
				Args: graphql.FieldConfigArgument{
					"width":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"height": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if err := ctl.Resize(p.Context, p.Args["width"].(float64), p.Args["height"].(float64)); err != nil {
						return nil, err
					}
					return after(p)
				},
			},
		},
	})
}
