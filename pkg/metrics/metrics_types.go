// Package metrics exposes the service's Prometheus collectors on a private
// registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stratnet"

// Registry groups the collectors by the component that feeds them. All
// are registered on an isolated prometheus.Registry rather than the
// global default.
type Registry struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec
	RateLimitedTotal      *prometheus.CounterVec

	SimulationTicksTotal     prometheus.Counter
	SimulationAlpha          prometheus.Gauge
	SimulationConvergedTotal prometheus.Counter
	SimulationTickDuration   prometheus.Histogram

	CatalogNodes         *prometheus.GaugeVec
	CatalogLinks         *prometheus.GaugeVec
	ImportsTotal         *prometheus.CounterVec
	UnplacedNodes        prometheus.Gauge
	ReconfigurationTotal *prometheus.CounterVec
	ActivationsTotal     *prometheus.CounterVec

	FeedFramesPublished prometheus.Counter
	FeedPublishErrors   prometheus.Counter
	WebSocketClients    prometheus.Gauge
	ArtifactsWritten    *prometheus.CounterVec
	WatchEventsTotal    *prometheus.CounterVec

	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	// catalogMu serializes UpdateCatalogMetrics' reset and refill.
	catalogMu sync.Mutex
}

// NewRegistry builds every collector on a fresh registry.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.register()
	return r
}

// GetPrometheusRegistry returns the registry to hand to promhttp.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
