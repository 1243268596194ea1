// Package health aggregates liveness and readiness checks for the layout
// service and serves them over HTTP.
package health

import (
	"slices"
	"sync"
	"time"
)

// Status is a check outcome. Ordering matters: aggregation reports the
// worst status seen.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Check is the result of one probe.
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	DurationMs  float64        `json:"duration_ms"`
}

// CheckFunc runs a probe.
type CheckFunc func() Check

// Scope selects the endpoints a check contributes to. Every check is part
// of the combined report.
type Scope uint8

const (
	ScopeLive Scope = 1 << iota
	ScopeReady
)

type registration struct {
	name  string
	scope Scope
	fn    CheckFunc
}

// Response is the aggregate served by the health endpoints.
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}

// HealthChecker holds the registered probes.
type HealthChecker struct {
	mu      sync.RWMutex
	checks  []registration
	started time.Time
	now     func() time.Time
}

// Option configures a HealthChecker.
type Option func(*HealthChecker)

// WithClock overrides the clock used for timestamps and uptime.
func WithClock(now func() time.Time) Option {
	return func(hc *HealthChecker) { hc.now = now }
}

func NewHealthChecker(opts ...Option) *HealthChecker {
	hc := &HealthChecker{now: time.Now}
	for _, opt := range opts {
		opt(hc)
	}
	hc.started = hc.now()
	return hc
}

// Register adds or replaces the check called name.
func (hc *HealthChecker) Register(name string, scope Scope, fn CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	reg := registration{name: name, scope: scope, fn: fn}
	if i := slices.IndexFunc(hc.checks, func(r registration) bool { return r.name == name }); i >= 0 {
		hc.checks[i] = reg
		return
	}
	hc.checks = append(hc.checks, reg)
}

// RegisterCheck adds a check reported by the combined endpoint only.
func (hc *HealthChecker) RegisterCheck(name string, fn CheckFunc) { hc.Register(name, 0, fn) }

func (hc *HealthChecker) RegisterReadinessCheck(name string, fn CheckFunc) {
	hc.Register(name, ScopeReady, fn)
}

func (hc *HealthChecker) RegisterLivenessCheck(name string, fn CheckFunc) {
	hc.Register(name, ScopeLive, fn)
}

// Check runs every registered check.
func (hc *HealthChecker) Check() Response { return hc.run(0) }

func (hc *HealthChecker) CheckReadiness() Response { return hc.run(ScopeReady) }

func (hc *HealthChecker) CheckLiveness() Response { return hc.run(ScopeLive) }

// run executes the checks whose scope includes want; want 0 selects all.
// Checks run outside the lock so a slow probe does not block registration.
func (hc *HealthChecker) run(want Scope) Response {
	hc.mu.RLock()
	selected := make([]registration, 0, len(hc.checks))
	for _, r := range hc.checks {
		if want == 0 || r.scope&want != 0 {
			selected = append(selected, r)
		}
	}
	hc.mu.RUnlock()

	now := hc.now()
	resp := Response{
		Status:    StatusHealthy,
		Timestamp: now,
		Checks:    make(map[string]Check, len(selected)),
		Uptime:    now.Sub(hc.started).Seconds(),
	}
	for _, r := range selected {
		start := time.Now()
		c := r.fn()
		c.LastChecked = start
		c.DurationMs = float64(time.Since(start).Microseconds()) / 1000
		if c.Name == "" {
			c.Name = r.name
		}
		resp.Checks[r.name] = c
		if c.Status.severity() > resp.Status.severity() {
			resp.Status = c.Status
		}
	}
	return resp
}
