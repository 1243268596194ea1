package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"
)

// Request represents a GraphQL HTTP request
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Response represents a GraphQL HTTP response
type Response struct {
	Data   any     `json:"data,omitempty"`
	Errors []Error `json:"errors,omitempty"`
}

// Error represents a GraphQL error
type Error struct {
	Message string `json:"message"`
}

// Handler serves GraphQL over HTTP POST.
type Handler struct {
	schema   graphql.Schema
	maxDepth int
}

// NewHandler creates a handler. maxDepth <= 0 uses DefaultMaxDepth.
func NewHandler(schema graphql.Schema, maxDepth int) *Handler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Handler{schema: schema, maxDepth: maxDepth}
}

// ServeHTTP executes the request with the HTTP request's context. GraphQL
// errors are reported in the body with status 200; malformed requests get
// 400.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(Response{Errors: []Error{{Message: "method not allowed"}}})
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(Response{Errors: []Error{{Message: "invalid request body"}}})
		return
	}

	result := Execute(r.Context(), h.schema, req, h.maxDepth)
	response := Response{Data: result.Data}
	for _, err := range result.Errors {
		response.Errors = append(response.Errors, Error{Message: err.Message})
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
