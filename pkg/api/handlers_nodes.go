package api

import (
	"net/http"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/validation"
)

// nodeID returns the {id} path segment, answering 400 when no node could
// carry it.
func (s *Server) nodeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if err := validation.Identifier(id); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.ctl.Nodes(r.Context(), catalog.Tier(r.URL.Query().Get("tier")))
	if err != nil {
		s.respondEngineError(w, r, "list nodes", err)
		return
	}
	s.respondJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	n, err := s.ctl.Node(r.Context(), id)
	if err != nil {
		s.respondEngineError(w, r, "get node", err)
		return
	}
	s.respondJSON(w, http.StatusOK, n)
}

// handleActivate is a click on a node: it selects the node, or in traversal
// mode appends it to the path.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	if err := s.ctl.Activate(r.Context(), id); err != nil {
		s.respondEngineError(w, r, "activate", err)
		return
	}

	n, err := s.ctl.Node(r.Context(), id)
	if err != nil {
		s.respondEngineError(w, r, "activate", err)
		return
	}
	st, err := s.ctl.Traversal(r.Context())
	if err != nil {
		s.respondEngineError(w, r, "activate", err)
		return
	}

	resp := ActivateResponse{Node: n, Traversal: st.Active}
	if st.Active {
		resp.Path = st.Path
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	var req DragRequest
	var phase engine.DragPhase
	rd := s.newRequestDecoder(w, r).DecodeJSON(&req).Validate(func() (err error) {
		phase, err = engine.ParseDragPhase(req.Phase)
		return err
	})
	if rd.RespondError() {
		return
	}

	if err := s.ctl.Drag(r.Context(), id, phase, req.X, req.Y); err != nil {
		s.respondEngineError(w, r, "drag", err)
		return
	}
	n, err := s.ctl.Node(r.Context(), id)
	if err != nil {
		s.respondEngineError(w, r, "drag", err)
		return
	}
	s.respondJSON(w, http.StatusOK, n)
}
