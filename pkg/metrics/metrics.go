package metrics

import (
	"runtime"
	"time"
)

// Every Record helper is a no-op on a nil *Registry so components can run
// without metrics in tests.

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize observes the size of a response body.
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	if r == nil {
		return
	}
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

func (r *Registry) IncHTTPRequestsInFlight() {
	if r == nil {
		return
	}
	r.HTTPRequestsInFlight.Inc()
}

func (r *Registry) DecHTTPRequestsInFlight() {
	if r == nil {
		return
	}
	r.HTTPRequestsInFlight.Dec()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (r *Registry) RecordRateLimited(path string) {
	if r == nil {
		return
	}
	r.RateLimitedTotal.WithLabelValues(path).Inc()
}

// RecordTick records one simulation step.
func (r *Registry) RecordTick(alpha float64, running bool, duration time.Duration) {
	if r == nil {
		return
	}
	r.SimulationTicksTotal.Inc()
	r.SimulationAlpha.Set(alpha)
	r.SimulationTickDuration.Observe(duration.Seconds())
	if !running {
		r.SimulationConvergedTotal.Inc()
	}
}

// RecordReconfiguration counts a live force change ("distances",
// "link_types", "viewport", "import", "drag").
func (r *Registry) RecordReconfiguration(kind string) {
	if r == nil {
		return
	}
	r.ReconfigurationTotal.WithLabelValues(kind).Inc()
}

// RecordImport counts an import attempt.
func (r *Registry) RecordImport(source string, err error) {
	if r == nil {
		return
	}
	r.ImportsTotal.WithLabelValues(source, resultLabel(err)).Inc()
}

// RecordActivation counts a node activation ("select" or "path").
func (r *Registry) RecordActivation(mode string) {
	if r == nil {
		return
	}
	r.ActivationsTotal.WithLabelValues(mode).Inc()
}

// RecordArtifact counts an artifact write.
func (r *Registry) RecordArtifact(sink string, err error) {
	if r == nil {
		return
	}
	r.ArtifactsWritten.WithLabelValues(sink, resultLabel(err)).Inc()
}

// RecordFeedPublish counts a frame sent on the feed socket.
func (r *Registry) RecordFeedPublish(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.FeedPublishErrors.Inc()
		return
	}
	r.FeedFramesPublished.Inc()
}

// RecordWatchEvent counts an import directory event.
func (r *Registry) RecordWatchEvent(err error) {
	if r == nil {
		return
	}
	r.WatchEventsTotal.WithLabelValues(resultLabel(err)).Inc()
}

// AddWebSocketClients adjusts the connected client gauge by delta.
func (r *Registry) AddWebSocketClients(delta int) {
	if r == nil {
		return
	}
	r.WebSocketClients.Add(float64(delta))
}

// UpdateCatalogMetrics replaces the catalog gauges.
func (r *Registry) UpdateCatalogMetrics(nodesByTier, linksByType map[string]int, unplaced int) {
	if r == nil {
		return
	}
	r.catalogMu.Lock()
	defer r.catalogMu.Unlock()

	r.CatalogNodes.Reset()
	for tier, n := range nodesByTier {
		r.CatalogNodes.WithLabelValues(tier).Set(float64(n))
	}
	r.CatalogLinks.Reset()
	for lt, n := range linksByType {
		r.CatalogLinks.WithLabelValues(lt).Set(float64(n))
	}
	r.UnplacedNodes.Set(float64(unplaced))
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges.
func (r *Registry) UpdateSystemMetrics(start time.Time) {
	if r == nil {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.UptimeSeconds.Set(time.Since(start).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(ms.Alloc))
	r.MemorySysBytes.Set(float64(ms.Sys))
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
