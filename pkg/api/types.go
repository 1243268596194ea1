package api

import (
	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
)

// LinkTypesRequest replaces the visible flow types.
type LinkTypesRequest struct {
	Types []catalog.LinkType `json:"types"`
}

// LinkDistancesRequest sets base distances by link type, e.g.
// {"distances": {"service-flow": 50}}.
type LinkDistancesRequest struct {
	Distances map[catalog.LinkType]float64 `json:"distances"`
}

// ViewportRequest resizes the layout.
type ViewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DragRequest is one phase of a drag gesture.
type DragRequest struct {
	Phase string  `json:"phase"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// TraversalRequest turns path-building mode on or off.
type TraversalRequest struct {
	Active bool `json:"active"`
}

// ActivateResponse reports the activated node and, in traversal mode, the
// path after activation.
type ActivateResponse struct {
	Node      catalog.Node   `json:"node"`
	Traversal bool           `json:"traversal"`
	Path      []catalog.Node `json:"path,omitempty"`
}

// ImportResponse reports a successful merge.
type ImportResponse struct {
	*catalog.MergeResult
	Nodes int `json:"nodes"`
	Links int `json:"links"`
}

// ArtifactResponse reports where an export was written.
type ArtifactResponse struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Bytes    int    `json:"bytes"`
}

// StatsResponse extends the engine statistics with server details.
type StatsResponse struct {
	engine.Stats
	Uptime           string `json:"uptime"`
	Version          string `json:"version"`
	WebSocketClients int64  `json:"websocket_clients"`
	DroppedEvents    uint64 `json:"dropped_events"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
