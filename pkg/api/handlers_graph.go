package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dd0wney/stratnet/pkg/artifact"
	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/pubsub"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ctl.Stats(r.Context())
	if err != nil {
		s.respondEngineError(w, r, "stats", err)
		return
	}
	s.respondJSON(w, http.StatusOK, StatsResponse{
		Stats:            stats,
		Uptime:           s.now().Sub(s.startTime).Round(time.Second).String(),
		Version:          s.version,
		WebSocketClients: s.wsClients.Load(),
		DroppedEvents:    s.bus.Dropped(),
	})
}

// handleGraph returns the current frame: positions and visible links.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	frame, err := s.ctl.Frame(r.Context())
	if err != nil {
		s.respondEngineError(w, r, "frame", err)
		return
	}
	s.respondJSON(w, http.StatusOK, frame)
}

// snapshot renders the catalog as an indented JSON document.
func (s *Server) snapshot(r *http.Request) ([]byte, error) {
	p, err := s.ctl.ExportSnapshot(r.Context())
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(p, "", "  ")
}

// handleExport downloads the snapshot as network-graph-<ms>.json, or
// snappy-compressed with ?compress=snappy.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	compress := false
	switch c := r.URL.Query().Get("compress"); c {
	case "":
	case "snappy":
		compress = true
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported compression %q", c))
		return
	}

	data, err := s.snapshot(r)
	if err != nil {
		s.respondEngineError(w, r, "export", err)
		return
	}

	name, body := artifact.Encode(artifact.SnapshotName(s.now()), data, compress)
	contentType := "application/json"
	if compress {
		contentType = "application/x-snappy"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleExportArtifact writes the snapshot to the configured sink.
func (s *Server) handleExportArtifact(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		s.respondError(w, http.StatusServiceUnavailable, "artifact export is not configured")
		return
	}

	data, err := s.snapshot(r)
	if err != nil {
		s.respondEngineError(w, r, "export", err)
		return
	}

	name := artifact.SnapshotName(s.now())
	loc, err := s.artifacts.Write(r.Context(), name, data)
	if err != nil {
		s.respondEngineError(w, r, "artifact export", err)
		return
	}
	s.logger.Info("snapshot exported", logging.String("location", loc))
	s.respondJSON(w, http.StatusCreated, ArtifactResponse{Name: name, Location: loc, Bytes: len(data)})
}

// handleImport merges a JSON document into the catalog. Any validation
// failure leaves the catalog untouched and returns 400.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if s.newRequestDecoder(w, r).ReadAll(&body).RespondError() {
		return
	}

	p, err := catalog.ParsePayload(body)
	if err == nil {
		var res *catalog.MergeResult
		if res, err = s.ctl.ImportData(r.Context(), p); err == nil {
			s.metrics.RecordImport("http", nil)
			s.publish(pubsub.TopicCatalogImported, res)

			resp := ImportResponse{MergeResult: res}
			if stats, serr := s.ctl.Stats(r.Context()); serr == nil {
				resp.Nodes, resp.Links = stats.Nodes, stats.Links
			}
			s.respondJSON(w, http.StatusOK, resp)
			return
		}
	}

	s.metrics.RecordImport("http", err)
	s.respondEngineError(w, r, "import", err)
}

func (s *Server) publish(topic pubsub.Topic, payload any) {
	s.bus.Publish(topic, payload)
}
