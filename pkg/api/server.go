// Package api serves the layout engine over HTTP: graph snapshots, the
// control surface, node interaction, traversal mode, GraphQL and a
// WebSocket event stream.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/stratnet/pkg/api/middleware"
	"github.com/dd0wney/stratnet/pkg/graphql"
	"github.com/dd0wney/stratnet/pkg/health"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/pubsub"
	"github.com/dd0wney/stratnet/pkg/validation"
)

// DefaultMaxBodyBytes bounds request bodies, imports included.
const DefaultMaxBodyBytes = 10 << 20

// NewServer creates a new API server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Control == nil {
		return nil, errors.New("api: control is required")
	}

	schema, err := graphql.NewSchema(cfg.Control)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ctl:            cfg.Control,
		bus:            cfg.Bus,
		graphqlHandler: graphql.NewHandler(schema, cfg.GraphQLMaxDepth),
		healthChecker:  cfg.Health,
		metrics:        cfg.Metrics,
		artifacts:      cfg.Artifacts,
		corsConfig:     cfg.CORS,
		trustedProxies: cfg.TrustedProxies,
		maxBodyBytes:   validation.DefaultOr(cfg.MaxBodyBytes, DefaultMaxBodyBytes),
		logger:         cfg.Logger,
		now:            cfg.Clock,
		version:        validation.DefaultOr(cfg.Version, "dev"),
	}
	if s.bus == nil {
		s.bus = pubsub.NewPubSub()
	}
	if s.healthChecker == nil {
		s.healthChecker = health.NewHealthChecker()
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.With(logging.Component("api"))
	if s.now == nil {
		s.now = time.Now
	}
	if s.corsConfig == nil {
		s.corsConfig = middleware.DefaultCORSConfig()
	}
	if cfg.RateLimit != nil {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 16384,
		CheckOrigin:     s.checkOrigin,
	}
	s.startTime = s.now()
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	limited := func(h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(s.rateLimiter, middleware.ClientIP(s.trustedProxies), s.onRateLimited)(h)
	}

	// Health and metrics
	mux.HandleFunc("GET /health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("GET /health/live", s.healthChecker.LivenessHandler())
	mux.HandleFunc("GET /health/ready", s.healthChecker.ReadinessHandler())
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("GET /stats", s.handleStats)

	// Graph snapshots and import
	mux.HandleFunc("GET /graph", s.handleGraph)
	mux.HandleFunc("GET /graph/export", s.handleExport)
	mux.Handle("POST /graph/export/artifact", limited(s.handleExportArtifact))
	mux.Handle("POST /graph/import", limited(s.handleImport))

	// Controls
	mux.HandleFunc("GET /controls", s.handleGetControls)
	mux.Handle("PUT /controls/link-types", limited(s.handleSetLinkTypes))
	mux.Handle("PUT /controls/link-distances", limited(s.handleSetLinkDistances))
	mux.Handle("POST /controls/link-distances/reset", limited(s.handleResetLinkDistances))
	mux.Handle("PUT /viewport", limited(s.handleResize))

	// Nodes
	mux.HandleFunc("GET /nodes", s.handleListNodes)
	mux.HandleFunc("GET /nodes/{id}", s.handleGetNode)
	mux.Handle("POST /nodes/{id}/activate", limited(s.handleActivate))
	mux.Handle("POST /nodes/{id}/drag", limited(s.handleDrag))

	// Traversal
	mux.HandleFunc("GET /traversal", s.handleGetTraversal)
	mux.Handle("PUT /traversal", limited(s.handleSetTraversal))
	mux.Handle("DELETE /traversal/path", limited(s.handleClearPath))
	mux.HandleFunc("GET /traversal/export", s.handleExportPath)

	mux.Handle("POST /graphql", s.graphqlHandler)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	var h http.Handler = mux
	h = middleware.BodySizeLimit(s.maxBodyBytes)(h)
	h = middleware.CORS(s.corsConfig)(h)
	if s.metrics != nil {
		h = middleware.Metrics(s.metrics)(h)
	}
	h = middleware.Logging(s.logger, middleware.GetRequestID)(h)
	h = middleware.RequestID()(h)
	h = middleware.PanicRecovery(s.logger)(h)
	return h
}

func (s *Server) onRateLimited(r *http.Request, clientID string) {
	s.metrics.RecordRateLimited(r.Pattern)
	s.logger.Warn("rate limited", logging.Path(r.URL.Path), logging.String("client", clientID))
}

// Close releases background resources. In-flight WebSocket sessions end when
// the bus shuts down or their clients disconnect.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// Bus returns the event bus the server publishes to.
func (s *Server) Bus() *pubsub.PubSub {
	return s.bus
}
