package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// Execute runs a request against schema after the depth check. A zero
// maxDepth disables the check.
func Execute(ctx context.Context, schema graphql.Schema, req Request, maxDepth int) *graphql.Result {
	if maxDepth > 0 {
		if err := ValidateQueryDepth(req.Query, maxDepth); err != nil {
			return &graphql.Result{
				Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)},
			}
		}
	}

	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}
