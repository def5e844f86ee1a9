package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initReplicationMetrics() {
	r.ReplicationDeliveriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "deliveries_total",
			Help:      "Peer deliveries by kind (propagate, retry, bootstrap) and result",
		},
		[]string{"kind", "result"},
	)

	r.ReplicationPendingBatches = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "pending_batches",
			Help:      "Writes waiting in the retry buffer",
		},
	)

	r.ReplicationCycleDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one bootstrap and retry cycle",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		},
	)

	r.ReplicationFullSyncsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "full_syncs_total",
			Help:      "Full bootstrap transfers to new peers by result",
		},
		[]string{"result"},
	)

	r.ReplicationDroppedTargets = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "dropped_targets_total",
			Help:      "Retry targets discarded because the peer left the cluster",
		},
	)
}
