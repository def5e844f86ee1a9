package cluster

// GetMembers returns every member address, this node included.
func (r *Registry) GetMembers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p.Address)
	}
	return out
}

// GetPeers returns every member address except this node.
func (r *Registry) GetPeers() []string {
	return r.collect(func(p *Peer) bool { return !p.IsSelf })
}

// GetPeersNeedingSync returns the peers still waiting for a full transfer.
// This node is never included.
func (r *Registry) GetPeersNeedingSync() []string {
	return r.collect(func(p *Peer) bool { return !p.IsSelf && p.NeedsFullSync })
}

func (r *Registry) collect(keep func(*Peer) bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.peers))
	for _, p := range r.peers {
		if keep(p) {
			out = append(out, p.Address)
		}
	}
	return out
}

// IsReady reports whether membership has been defined. Synonym queries and
// writes are refused until it is.
func (r *Registry) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers) > 0
}

// Self returns this node's address, or "" before the first definition.
func (r *Registry) Self() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.self
}

// Snapshot returns copies of all member records in definition order.
func (r *Registry) Snapshot() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, *p)
	}
	return out
}
