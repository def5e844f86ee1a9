package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordStoreOperation records a store operation
func (r *Registry) RecordStoreOperation(operation, status string, duration time.Duration) {
	r.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateStoreSize publishes the current word and group counts.
func (r *Registry) UpdateStoreSize(words, groups int) {
	r.StoreWordsTotal.Set(float64(words))
	r.StoreGroupsTotal.Set(float64(groups))
}

// UpdateClusterMetrics updates cluster membership gauges
func (r *Registry) UpdateClusterMetrics(members, needingSync int, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ClusterMembersTotal.Set(float64(members))
	r.ClusterPeersNeedingSync.Set(float64(needingSync))
	if ready {
		r.ClusterReady.Set(1)
	} else {
		r.ClusterReady.Set(0)
	}
}

// Delivery kinds
const (
	DeliveryPropagate = "propagate"
	DeliveryRetry     = "retry"
	DeliveryBootstrap = "bootstrap"
)

// RecordDelivery counts one peer call of the given kind.
func (r *Registry) RecordDelivery(kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.ReplicationDeliveriesTotal.WithLabelValues(kind, result).Inc()
}

// RecordFullSync counts one bootstrap transfer.
func (r *Registry) RecordFullSync(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.ReplicationFullSyncsTotal.WithLabelValues(result).Inc()
}

// RecordReplicationCycle records a background cycle and the resulting backlog.
func (r *Registry) RecordReplicationCycle(duration time.Duration, pending int) {
	r.ReplicationCycleDuration.Observe(duration.Seconds())
	r.ReplicationPendingBatches.Set(float64(pending))
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, route string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, route).Observe(size)
}

// IncHTTPRequestsInFlight increments the in-flight request gauge
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight request gauge
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}
