package cluster

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// SetMembers replaces the cluster definition. self must be one of all.
// Duplicate addresses collapse to one member. Retained members keep their
// position and sync flag; new members are appended in the given order.
func (r *Registry) SetMembers(self string, all []string) error {
	if strings.TrimSpace(self) == "" {
		return ErrMissingSelf
	}
	if len(all) == 0 {
		return ErrNoMembers
	}

	wanted := make([]string, 0, len(all))
	for _, addr := range all {
		if strings.TrimSpace(addr) == "" {
			return ErrInvalidAddress
		}
		if !slices.Contains(wanted, addr) {
			wanted = append(wanted, addr)
		}
	}
	if !slices.Contains(wanted, self) {
		return fmt.Errorf("%w: %s", ErrSelfNotMember, self)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	initial := len(r.peers) == 0

	kept := r.peers[:0:0]
	for _, p := range r.peers {
		if slices.Contains(wanted, p.Address) {
			kept = append(kept, p)
		} else {
			delete(r.byAddr, p.Address)
		}
	}
	for _, addr := range wanted {
		if _, ok := r.byAddr[addr]; ok {
			continue
		}
		p := &Peer{Address: addr, NeedsFullSync: !initial}
		r.byAddr[addr] = p
		kept = append(kept, p)
	}
	for _, p := range kept {
		p.IsSelf = p.Address == self
	}

	r.peers = kept
	r.self = self
	r.updateMetrics(true)
	return nil
}

// MarkSynced clears the full-sync flag of a peer. Unknown peers are ignored:
// the peer may have been removed while its transfer was in flight.
func (r *Registry) MarkSynced(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byAddr[addr]; ok {
		p.NeedsFullSync = false
		r.updateMetrics(false)
	}
}
