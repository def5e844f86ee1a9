package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "synonymdb"

// Registry holds all metrics for a synonym node
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Store Metrics
	StoreWordsTotal        prometheus.Gauge
	StoreGroupsTotal       prometheus.Gauge
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreMergesTotal       prometheus.Counter

	// Cluster Metrics
	ClusterMembersTotal       prometheus.Gauge
	ClusterPeersNeedingSync   prometheus.Gauge
	ClusterReady              prometheus.Gauge
	ClusterRedefinitionsTotal prometheus.Counter

	// Replication Metrics
	ReplicationDeliveriesTotal *prometheus.CounterVec
	ReplicationPendingBatches  prometheus.Gauge
	ReplicationCycleDuration   prometheus.Histogram
	ReplicationFullSyncsTotal  *prometheus.CounterVec
	ReplicationDroppedTargets  prometheus.Counter

	// System Metrics
	UptimeSeconds prometheus.GaugeFunc

	registry  *prometheus.Registry
	startedAt time.Time
	mu        sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized.
// Each node gets its own prometheus.Registry so tests can run several in one process.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startedAt: time.Now(),
	}

	r.initHTTPMetrics()
	r.initStoreMetrics()
	r.initClusterMetrics()
	r.initReplicationMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry:          r.registry,
		EnableOpenMetrics: true,
	})
}
