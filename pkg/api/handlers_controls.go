package api

import (
	"net/http"

	"github.com/dd0wney/stratnet/pkg/pubsub"
)

func (s *Server) handleGetControls(w http.ResponseWriter, r *http.Request) {
	s.respondControls(w, r, false)
}

// respondControls writes the current controls, announcing them on the bus
// after a change.
func (s *Server) respondControls(w http.ResponseWriter, r *http.Request, changed bool) {
	c, err := s.ctl.Controls(r.Context())
	if err != nil {
		s.respondEngineError(w, r, "controls", err)
		return
	}
	if changed {
		s.publish(pubsub.TopicControlsChanged, c)
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleSetLinkTypes(w http.ResponseWriter, r *http.Request) {
	var req LinkTypesRequest
	if s.newRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}
	if err := s.ctl.SetVisibleLinkTypes(r.Context(), req.Types); err != nil {
		s.respondEngineError(w, r, "set link types", err)
		return
	}
	s.respondControls(w, r, true)
}

func (s *Server) handleSetLinkDistances(w http.ResponseWriter, r *http.Request) {
	var req LinkDistancesRequest
	if s.newRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}
	if err := s.ctl.SetLinkDistances(r.Context(), req.Distances); err != nil {
		s.respondEngineError(w, r, "set link distances", err)
		return
	}
	s.respondControls(w, r, true)
}

func (s *Server) handleResetLinkDistances(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.ResetLinkDistances(r.Context()); err != nil {
		s.respondEngineError(w, r, "reset link distances", err)
		return
	}
	s.respondControls(w, r, true)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if s.newRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}
	if err := s.ctl.Resize(r.Context(), req.Width, req.Height); err != nil {
		s.respondEngineError(w, r, "resize", err)
		return
	}
	s.respondControls(w, r, true)
}
