package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dd0wney/stratnet/pkg/artifact"
	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/traversal"
	"github.com/dd0wney/stratnet/pkg/visualization"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	s.respondJSON(w, status, response)
}

// errorStatus maps engine and catalog errors to HTTP status codes.
func errorStatus(err error) int {
	var verr *catalog.ValidationError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &verr),
		errors.Is(err, visualization.ErrInvalidDistance),
		errors.Is(err, visualization.ErrUnknownLinkType),
		errors.Is(err, visualization.ErrInvalidViewport),
		errors.Is(err, engine.ErrInvalidDragPhase),
		errors.Is(err, artifact.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotDragging),
		errors.Is(err, traversal.ErrEmptyPath):
		return http.StatusConflict
	case errors.Is(err, engine.ErrStopped),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondEngineError writes err with its mapped status. Internal errors are
// logged and reported generically.
func (s *Server) respondEngineError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(operation+" failed", logging.Operation(operation), logging.Path(r.URL.Path), logging.Error(err))
		s.respondError(w, status, operation+" failed")
		return
	}
	s.respondError(w, status, err.Error())
}
