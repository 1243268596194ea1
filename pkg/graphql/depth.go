package graphql

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth bounds selection nesting. The deepest legitimate query,
// controls { distances { structure } }, has depth 3.
const DefaultMaxDepth = 5

func calculateQueryDepth(document *ast.Document) int {
	fragments := make(map[string]*ast.FragmentDefinition)
	for _, definition := range document.Definitions {
		if f, ok := definition.(*ast.FragmentDefinition); ok {
			fragments[f.Name.Value] = f
		}
	}

	maxDepth := 0
	for _, definition := range document.Definitions {
		if op, ok := definition.(*ast.OperationDefinition); ok {
			maxDepth = max(maxDepth, selectionSetDepth(op.SelectionSet, 0, fragments, map[string]bool{}))
		}
	}
	return maxDepth
}

// selectionSetDepth returns the deepest field level under set. Fragment
// spreads are followed once per path so cycles terminate.
func selectionSetDepth(set *ast.SelectionSet, depth int, fragments map[string]*ast.FragmentDefinition, visiting map[string]bool) int {
	if set == nil {
		return depth
	}

	deepest := depth
	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name.Value, "__") {
				continue
			}
			deepest = max(deepest, selectionSetDepth(sel.SelectionSet, depth+1, fragments, visiting))
		case *ast.InlineFragment:
			deepest = max(deepest, selectionSetDepth(sel.SelectionSet, depth, fragments, visiting))
		case *ast.FragmentSpread:
			name := sel.Name.Value
			f, ok := fragments[name]
			if !ok || visiting[name] {
				continue
			}
			visiting[name] = true
			deepest = max(deepest, selectionSetDepth(f.SelectionSet, depth, fragments, visiting))
			delete(visiting, name)
		}
	}
	return deepest
}

// ValidateQueryDepth parses query and rejects it if its selections nest
// deeper than maxDepth.
func ValidateQueryDepth(query string, maxDepth int) error {
	document, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}
	if depth := calculateQueryDepth(document); depth > maxDepth {
		return fmt.Errorf("query depth %d exceeds maximum allowed depth %d", depth, maxDepth)
	}
	return nil
}
