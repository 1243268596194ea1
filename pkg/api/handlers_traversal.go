package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dd0wney/stratnet/pkg/traversal"
)

func (s *Server) handleGetTraversal(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctl.Traversal(r.Context())
	if err != nil {
		s.respondEngineError(w, r, "traversal", err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

// handleSetTraversal switches path-building mode. Turning it on starts a
// fresh path.
func (s *Server) handleSetTraversal(w http.ResponseWriter, r *http.Request) {
	var req TraversalRequest
	if s.newRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}
	if err := s.ctl.SetTraversalMode(r.Context(), req.Active); err != nil {
		s.respondEngineError(w, r, "set traversal", err)
		return
	}
	s.handleGetTraversal(w, r)
}

func (s *Server) handleClearPath(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.ClearPath(r.Context()); err != nil {
		s.respondEngineError(w, r, "clear path", err)
		return
	}
	s.handleGetTraversal(w, r)
}

// handleExportPath downloads the path document. An empty path is a 409.
func (s *Server) handleExportPath(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ctl.PathDocument(r.Context())
	if err != nil {
		s.respondEngineError(w, r, "path export", err)
		return
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.respondEngineError(w, r, "path export", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", traversal.Filename(s.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
