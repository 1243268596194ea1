package health

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// ControllerCheck reports whether the layout loop is running. A loop that
// has not attempted a step within stale is degraded.
func ControllerCheck(running func() bool, lastTick func() time.Time, stale time.Duration) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "controller",
			Details: make(map[string]any),
		}

		if !running() {
			check.Status = StatusUnhealthy
			check.Message = "Layout loop stopped"
			return check
		}

		last := lastTick()
		check.Details["last_tick"] = last
		if !last.IsZero() && stale > 0 && time.Since(last) > stale {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("No tick for %s", time.Since(last).Round(time.Millisecond))
			return check
		}

		check.Status = StatusHealthy
		check.Message = "Layout loop running"
		return check
	}
}

// CatalogCheck reports ready once the catalog has a root node. hasRoot is
// called with a context bounded by timeout.
func CatalogCheck(hasRoot func(ctx context.Context) (bool, error), timeout time.Duration) CheckFunc {
	return func() Check {
		check := Check{Name: "catalog"}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		ok, err := hasRoot(ctx)
		switch {
		case err != nil:
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		case !ok:
			check.Status = StatusUnhealthy
			check.Message = "Catalog has no root node"
		default:
			check.Status = StatusHealthy
			check.Message = "Catalog loaded"
		}
		return check
	}
}

// MemoryCheck reports heap usage against the memory obtained from the OS.
// getUsage defaults to runtime.ReadMemStats when nil.
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	if getUsage == nil {
		getUsage = func() (uint64, uint64) {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return m.HeapAlloc, m.Sys
		}
	}
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys)*100 > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}
