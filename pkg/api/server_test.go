package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/stratnet/pkg/api/middleware"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/health"
	"github.com/dd0wney/stratnet/pkg/metrics"
	"github.com/dd0wney/stratnet/pkg/pubsub"
)

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

type testServer struct {
	*Server
	ctl     *engine.Controller
	handler http.Handler
}

// setupTestServer runs a controller over the seed catalog and serves it.
// mutate adjusts the server config before it is built.
func setupTestServer(t *testing.T, mutate ...func(*Config)) *testServer {
	t.Helper()

	bus := pubsub.NewPubSub()
	reg := metrics.NewRegistry()
	eng, err := engine.New(engine.DefaultConfig(),
		engine.WithCallbacks(EngineCallbacks(bus)),
		engine.WithMetrics(reg),
	)
	require.NoError(t, err)

	ctl := engine.NewController(eng, engine.ControllerConfig{
		TickInterval: time.Millisecond,
		OnFrame:      FramePublisher(bus),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctl.Run(ctx)
	}()

	hc := health.NewHealthChecker()
	hc.RegisterReadinessCheck("catalog", health.CatalogCheck(ctl.HasRoot, time.Second))

	cfg := Config{
		Control: ctl,
		Bus:     bus,
		Health:  hc,
		Metrics: reg,
		Version: "test",
		Clock:   func() time.Time { return testNow },
	}
	for _, m := range mutate {
		m(&cfg)
	}

	s, err := NewServer(cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
		cancel()
		<-done
		bus.Shutdown()
	})
	return &testServer{Server: s, ctl: ctl, handler: s.Handler()}
}

// do sends a request through the full middleware chain.
func (ts *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func TestNewServerRequiresControl(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			rr := ts.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			resp := decode[health.Response](t, rr)
			assert.Equal(t, health.StatusHealthy, resp.Status)
		})
	}
}

func TestStats(t *testing.T) {
	ts := setupTestServer(t)

	rr := ts.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	stats := decode[StatsResponse](t, rr)
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 3, stats.Links)
	assert.Equal(t, 3, stats.VisibleLinks)
	assert.Equal(t, "test", stats.Version)
	assert.Equal(t, "0s", stats.Uptime)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestMethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/graph"},
		{http.MethodDelete, "/controls"},
		{http.MethodGet, "/graph/import"},
		{http.MethodGet, "/graphql"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)
	rr := ts.do(t, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodGet, "/stats", nil)
	rr := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `stratnet_catalog_nodes{tier="sector"} 3`)
	assert.Contains(t, body, `stratnet_http_requests_total{method="GET",path="GET /stats",status="200"} 1`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	ts := setupTestServer(t, func(c *Config) { c.Metrics = nil })
	rr := ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRateLimitMutatingRoutes(t *testing.T) {
	ts := setupTestServer(t, func(c *Config) {
		c.RateLimit = &middleware.RateLimitConfig{
			RequestsPerSecond: 0.001,
			BurstSize:         2,
			ClientExpiration:  time.Minute,
		}
	})

	for i := 0; i < 2; i++ {
		rr := ts.do(t, http.MethodPost, "/controls/link-distances/reset", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := ts.do(t, http.MethodPost, "/controls/link-distances/reset", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Reads are never limited.
	rr = ts.do(t, http.MethodGet, "/controls", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBodySizeLimit(t *testing.T) {
	ts := setupTestServer(t, func(c *Config) { c.MaxBodyBytes = 64 })

	body := `{"nodes":[{"id":"` + strings.Repeat("x", 100) + `"}],"links":[]}`
	rr := ts.do(t, http.MethodPost, "/graph/import", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"stopped", engine.ErrStopped, http.StatusServiceUnavailable},
		{"not dragging", engine.ErrNotDragging, http.StatusConflict},
		{"bad phase", engine.ErrInvalidDragPhase, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}
