package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func healthy() Check   { return Check{Status: StatusHealthy} }
func degraded() Check  { return Check{Status: StatusDegraded} }
func unhealthy() Check { return Check{Status: StatusUnhealthy} }

func TestScopes(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterLivenessCheck("controller", healthy)
	hc.RegisterReadinessCheck("catalog", unhealthy)
	hc.RegisterCheck("memory", degraded)
	hc.Register("feed", ScopeLive|ScopeReady, healthy)

	tests := []struct {
		name   string
		resp   Response
		checks []string
		status Status
	}{
		{"combined", hc.Check(), []string{"controller", "catalog", "memory", "feed"}, StatusUnhealthy},
		{"liveness", hc.CheckLiveness(), []string{"controller", "feed"}, StatusHealthy},
		{"readiness", hc.CheckReadiness(), []string{"catalog", "feed"}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.resp.Checks) != len(tt.checks) {
				t.Errorf("got %d checks, want %d", len(tt.resp.Checks), len(tt.checks))
			}
			for _, name := range tt.checks {
				c, ok := tt.resp.Checks[name]
				if !ok {
					t.Errorf("missing check %q", name)
					continue
				}
				if c.Name != name {
					t.Errorf("unnamed check should take its registration name, got %q", c.Name)
				}
			}
			if tt.resp.Status != tt.status {
				t.Errorf("status = %s, want %s", tt.resp.Status, tt.status)
			}
		})
	}
}

func TestRegisterReplaces(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterReadinessCheck("catalog", unhealthy)
	hc.RegisterReadinessCheck("catalog", healthy)

	resp := hc.CheckReadiness()
	if len(resp.Checks) != 1 || resp.Status != StatusHealthy {
		t.Errorf("re-registration should replace the check: %+v", resp)
	}
}

func TestStatusAggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded, StatusHealthy}, StatusDegraded},
		{"unhealthy beats degraded", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"degraded after unhealthy", []Status{StatusUnhealthy, StatusDegraded}, StatusUnhealthy},
		{"unknown counts as unhealthy", []Status{StatusHealthy, "exploded"}, "exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for i, status := range tt.statuses {
				hc.RegisterCheck(string(rune('a'+i)), func() Check { return Check{Status: status} })
			}
			if got := hc.Check().Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTimestampAndUptime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	hc := NewHealthChecker(WithClock(func() time.Time { return now }))
	now = now.Add(90 * time.Second)

	resp := hc.Check()
	if !resp.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", resp.Timestamp, now)
	}
	if resp.Uptime != 90 {
		t.Errorf("uptime = %v, want 90", resp.Uptime)
	}
}

func TestCheckDuration(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("slow", func() Check {
		time.Sleep(10 * time.Millisecond)
		return healthy()
	})

	c := hc.Check().Checks["slow"]
	if c.DurationMs < 10 {
		t.Errorf("duration_ms = %v, want at least 10", c.DurationMs)
	}
	if c.LastChecked.IsZero() {
		t.Error("last_checked not set")
	}
}

func TestControllerCheck(t *testing.T) {
	tests := []struct {
		name           string
		running        bool
		lastTick       time.Time
		expectedStatus Status
		expectedMsg    string
	}{
		{
			name:           "stopped",
			running:        false,
			expectedStatus: StatusUnhealthy,
			expectedMsg:    "Layout loop stopped",
		},
		{
			name:           "running, no tick yet",
			running:        true,
			expectedStatus: StatusHealthy,
			expectedMsg:    "Layout loop running",
		},
		{
			name:           "recent tick",
			running:        true,
			lastTick:       time.Now(),
			expectedStatus: StatusHealthy,
			expectedMsg:    "Layout loop running",
		},
		{
			name:           "stale tick",
			running:        true,
			lastTick:       time.Now().Add(-time.Minute),
			expectedStatus: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := ControllerCheck(
				func() bool { return tt.running },
				func() time.Time { return tt.lastTick },
				5*time.Second,
			)()

			if check.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, check.Status)
			}
			if tt.expectedMsg != "" && check.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, check.Message)
			}
			if check.Name != "controller" {
				t.Errorf("expected name 'controller', got %s", check.Name)
			}
		})
	}
}

func TestCatalogCheck(t *testing.T) {
	tests := []struct {
		name           string
		hasRoot        bool
		err            error
		expectedStatus Status
		expectedMsg    string
	}{
		{"root present", true, nil, StatusHealthy, "Catalog loaded"},
		{"no root", false, nil, StatusUnhealthy, "Catalog has no root node"},
		{"controller stopped", false, errors.New("layout controller stopped"), StatusUnhealthy, "layout controller stopped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := CatalogCheck(func(ctx context.Context) (bool, error) {
				if _, ok := ctx.Deadline(); !ok {
					t.Error("hasRoot called without a deadline")
				}
				return tt.hasRoot, tt.err
			}, time.Second)()

			if check.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, check.Status)
			}
			if check.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, check.Message)
			}
		})
	}
}

func TestMemoryCheck(t *testing.T) {
	tests := []struct {
		name           string
		alloc, sys     uint64
		expectedStatus Status
	}{
		{"normal", 100, 1000, StatusHealthy},
		{"high", 950, 1000, StatusDegraded},
		{"zero sys", 10, 0, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := MemoryCheck(func() (uint64, uint64) { return tt.alloc, tt.sys })()
			if check.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, check.Status)
			}
			if check.Details["alloc_bytes"] != tt.alloc {
				t.Errorf("alloc_bytes = %v", check.Details["alloc_bytes"])
			}
		})
	}

	if check := MemoryCheck(nil)(); check.Status == "" {
		t.Error("runtime memory check returned no status")
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name         string
		status       Status
		handler      func(*HealthChecker) http.HandlerFunc
		expectedCode int
	}{
		{"combined healthy", StatusHealthy, (*HealthChecker).HTTPHandler, http.StatusOK},
		{"combined degraded", StatusDegraded, (*HealthChecker).HTTPHandler, http.StatusOK},
		{"combined unhealthy", StatusUnhealthy, (*HealthChecker).HTTPHandler, http.StatusServiceUnavailable},
		{"ready healthy", StatusHealthy, (*HealthChecker).ReadinessHandler, http.StatusOK},
		{"ready degraded", StatusDegraded, (*HealthChecker).ReadinessHandler, http.StatusServiceUnavailable},
		{"live healthy", StatusHealthy, (*HealthChecker).LivenessHandler, http.StatusOK},
		{"live unhealthy", StatusUnhealthy, (*HealthChecker).LivenessHandler, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			check := func() Check { return Check{Status: tt.status} }
			hc.Register("component", ScopeLive|ScopeReady, check)

			rec := httptest.NewRecorder()
			tt.handler(hc)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.expectedCode {
				t.Errorf("expected code %d, got %d", tt.expectedCode, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}

			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("expected body status %s, got %s", tt.status, resp.Status)
			}
		})
	}
}
