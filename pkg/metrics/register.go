package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tickBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05}

func (r *Registry) register() {
	f := promauto.With(r.registry)

	counter := func(subsystem, name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help})
	}
	counterVec := func(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}, labels)
	}
	gauge := func(subsystem, name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help})
	}
	gaugeVec := func(subsystem, name, help string, labels ...string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}, labels)
	}

	// http
	r.HTTPRequestsTotal = counterVec("http", "requests_total", "HTTP requests by route and status", "method", "path", "status")
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	r.HTTPRequestsInFlight = gauge("http", "requests_in_flight", "Requests currently being served")
	r.HTTPResponseSizeBytes = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "Response body size",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 5),
	}, []string{"method", "path"})
	r.RateLimitedTotal = counterVec("http", "rate_limited_total", "Requests rejected by the rate limiter", "path")

	// simulation
	r.SimulationTicksTotal = counter("simulation", "ticks_total", "Simulation steps computed")
	r.SimulationAlpha = gauge("simulation", "alpha", "Current simulation energy")
	r.SimulationConvergedTotal = counter("simulation", "converged_total", "Times the simulation cooled below its threshold")
	r.SimulationTickDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "simulation",
		Name:      "tick_duration_seconds",
		Help:      "Time spent computing one simulation step",
		Buckets:   tickBuckets,
	})

	// catalog
	r.CatalogNodes = gaugeVec("catalog", "nodes", "Catalog nodes by tier", "tier")
	r.CatalogLinks = gaugeVec("catalog", "links", "Catalog links by type", "type")
	r.ImportsTotal = counterVec("", "imports_total", "Import attempts by source and result", "source", "result")
	r.UnplacedNodes = gauge("", "unplaced_nodes", "Nodes the last placement could not seed")
	r.ReconfigurationTotal = counterVec("", "reconfigurations_total", "Live force reconfigurations by kind", "kind")
	r.ActivationsTotal = counterVec("node", "activations_total", "Node activations by mode", "mode")

	// outputs
	r.FeedFramesPublished = counter("feed", "frames_published_total", "Frames published on the feed socket")
	r.FeedPublishErrors = counter("feed", "publish_errors_total", "Frames that failed to publish")
	r.WebSocketClients = gauge("websocket", "clients", "Connected WebSocket clients")
	r.ArtifactsWritten = counterVec("artifacts", "written_total", "Exported artifacts by sink and result", "sink", "result")
	r.WatchEventsTotal = counterVec("watch", "events_total", "Import directory events by result", "result")

	// process
	r.UptimeSeconds = gauge("", "uptime_seconds", "Seconds since the server started")
	r.GoRoutines = gauge("", "goroutines", "Live goroutines")
	r.MemoryAllocBytes = gauge("memory", "alloc_bytes", "Bytes of allocated heap objects")
	r.MemorySysBytes = gauge("memory", "sys_bytes", "Bytes of memory obtained from the OS")
}
