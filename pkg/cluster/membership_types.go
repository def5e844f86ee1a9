package cluster

import (
	"sync"

	"github.com/dd0wney/cluso-synonyms/pkg/metrics"
)

// Peer is one member of the cluster as seen from this node.
type Peer struct {
	Address       string `json:"address"`
	IsSelf        bool   `json:"is_self"`
	NeedsFullSync bool   `json:"needs_full_sync"`
}

// Registry holds the current cluster membership.
//
// SetMembers and MarkSynced take the write lock; every query takes the read
// lock and returns a copy.
type Registry struct {
	peers           []*Peer          // definition order
	byAddr          map[string]*Peer // address -> entry in peers
	self            string
	mu              sync.RWMutex
	metricsRegistry *metrics.Registry
}

// NewRegistry creates an empty, not yet ready registry. reg may be nil.
func NewRegistry(reg *metrics.Registry) *Registry {
	r := &Registry{
		byAddr:          make(map[string]*Peer),
		metricsRegistry: reg,
	}
	r.updateMetrics(false)
	return r
}

// updateMetrics must be called with r.mu held.
func (r *Registry) updateMetrics(defined bool) {
	if r.metricsRegistry == nil {
		return
	}
	needing := 0
	for _, p := range r.peers {
		if !p.IsSelf && p.NeedsFullSync {
			needing++
		}
	}
	r.metricsRegistry.UpdateClusterMetrics(len(r.peers), needing, len(r.peers) > 0)
	if defined {
		r.metricsRegistry.ClusterRedefinitionsTotal.Inc()
	}
}
