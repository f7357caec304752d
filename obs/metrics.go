package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exposes execution counters/gauges/histograms under the
// "graphcore" namespace. Adapted from the teacher's graph/metrics.go, with
// node/layer vocabulary in place of the teacher's node/step one and two
// domain-specific additions (cache hit/miss counters, breaker trips).
type PrometheusMetrics struct {
	inflightNodes prometheus.Gauge
	layerWidth    prometheus.Gauge

	nodeLatency *prometheus.HistogramVec

	retries      *prometheus.CounterVec
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	breakerTrips *prometheus.CounterVec
}

// NewPrometheusMetrics registers every metric against registry. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() to isolate multiple Executors in one process.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	f := promauto.With(registry)

	return &PrometheusMetrics{
		inflightNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphcore", Name: "inflight_nodes",
			Help: "Nodes currently executing within the active layer wave.",
		}),
		layerWidth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphcore", Name: "layer_width",
			Help: "Number of enabled nodes in the layer currently dispatching.",
		}),
		nodeLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "graphcore", Name: "node_latency_ms",
			Help:    "Node execution duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
		}, []string{"run_id", "node_id", "status"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphcore", Name: "retries_total",
			Help: "Retry attempts made by Retry nodes.",
		}, []string{"run_id", "node_id"}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphcore", Name: "cache_hits_total",
			Help: "Node dispatches satisfied from the cache.",
		}, []string{"run_id", "node_id"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphcore", Name: "cache_misses_total",
			Help: "Node dispatches that missed the cache and ran.",
		}, []string{"run_id", "node_id"}),
		breakerTrips: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphcore", Name: "breaker_trips_total",
			Help: "CircuitBreaker transitions into the Open state.",
		}, []string{"run_id", "target_node_id"}),
	}
}

func (pm *PrometheusMetrics) RecordNodeLatency(runID, nodeID string, d time.Duration, status string) {
	pm.nodeLatency.WithLabelValues(runID, nodeID, status).Observe(float64(d.Milliseconds()))
}

func (pm *PrometheusMetrics) SetInflightNodes(n int) { pm.inflightNodes.Set(float64(n)) }

func (pm *PrometheusMetrics) SetLayerWidth(n int) { pm.layerWidth.Set(float64(n)) }

func (pm *PrometheusMetrics) IncRetry(runID, nodeID string) {
	pm.retries.WithLabelValues(runID, nodeID).Inc()
}

func (pm *PrometheusMetrics) IncCacheHit(runID, nodeID string) {
	pm.cacheHits.WithLabelValues(runID, nodeID).Inc()
}

func (pm *PrometheusMetrics) IncCacheMiss(runID, nodeID string) {
	pm.cacheMisses.WithLabelValues(runID, nodeID).Inc()
}

func (pm *PrometheusMetrics) IncBreakerTrip(runID, targetNodeID string) {
	pm.breakerTrips.WithLabelValues(runID, targetNodeID).Inc()
}
