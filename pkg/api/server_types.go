package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dd0wney/stratnet/pkg/api/middleware"
	"github.com/dd0wney/stratnet/pkg/artifact"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/health"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/metrics"
	"github.com/dd0wney/stratnet/pkg/pubsub"
)

// Server represents the HTTP API server
type Server struct {
	ctl            engine.Control
	bus            *pubsub.PubSub
	graphqlHandler http.Handler
	healthChecker  *health.HealthChecker
	metrics        *metrics.Registry
	artifacts      *artifact.Writer       // nil when no sink is configured
	rateLimiter    *middleware.RateLimiter // Applied to mutating routes only
	corsConfig     *middleware.CORSConfig
	trustedProxies middleware.ProxySet
	maxBodyBytes   int64
	upgrader       websocket.Upgrader
	wsClients      atomic.Int64
	logger         logging.Logger
	now            func() time.Time
	startTime      time.Time
	version        string
}

// Config wires a Server. Control is required; everything else has a
// working default.
type Config struct {
	Control         engine.Control
	Bus             *pubsub.PubSub
	Health          *health.HealthChecker
	Metrics         *metrics.Registry
	Artifacts       *artifact.Writer
	RateLimit       *middleware.RateLimitConfig // nil disables rate limiting
	CORS            *middleware.CORSConfig
	TrustedProxies  middleware.ProxySet
	MaxBodyBytes    int64
	GraphQLMaxDepth int
	Logger          logging.Logger
	Version         string
	Clock           func() time.Time
}
