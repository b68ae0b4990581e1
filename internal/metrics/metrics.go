package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)
	// RateLimited counts requests rejected by the per-tenant limiter
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "http_rate_limited_total", Help: "Requests rejected with 429."},
	)

	// PathComputations counts path requests by result: found, not_found, invalid, error
	PathComputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "path_computations_total", Help: "Path computations by result."},
		[]string{"result"},
	)
	// PathDuration tracks end-to-end path computation time including snapshot load
	PathDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "path_compute_duration_seconds", Help: "Path computation duration in seconds.", Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}},
	)
	// PathGraphEdges records the size of the filtered graph searched per request
	PathGraphEdges = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "path_graph_edges", Help: "Traversable edges after filtering.", Buckets: prometheus.ExponentialBuckets(1, 4, 8)},
	)

	// ZoneResolutions counts zone lookups by result: matched, no_zone, invalid, error
	ZoneResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "zone_resolutions_total", Help: "Zone resolutions by result."},
		[]string{"result"},
	)
	// CoverageChecks counts coverage checks by result: serviceable, not_serviceable, invalid, error
	CoverageChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "coverage_checks_total", Help: "Coverage checks by result."},
		[]string{"result"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(RateLimited)
		Registry.MustRegister(PathComputations)
		Registry.MustRegister(PathDuration)
		Registry.MustRegister(PathGraphEdges)
		Registry.MustRegister(ZoneResolutions)
		Registry.MustRegister(CoverageChecks)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
