package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initClusterMetrics() {
	r.ClusterMembersTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "members",
			Help:      "Number of cluster members, this node included",
		},
	)

	r.ClusterPeersNeedingSync = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "peers_needing_sync",
			Help:      "Peers still waiting for a full bootstrap",
		},
	)

	r.ClusterReady = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "ready",
			Help:      "Whether cluster membership has been defined (1=yes, 0=no)",
		},
	)

	r.ClusterRedefinitionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "definitions_total",
			Help:      "Number of accepted membership definitions",
		},
	)
}
