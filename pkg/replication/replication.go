// Package replication keeps the nodes of a cluster converging on the same
// synonym groups.
//
// Every local write is pushed to all peers as soon as it is stored. Peers
// that cannot be reached are remembered in a retry buffer, and a single
// background task periodically retries them and sends a complete copy of
// the store to peers that joined the cluster since the last cycle. Since a
// union of synonyms is idempotent, deliveries may repeat or arrive in any
// order without harm.
package replication

import (
	"context"

	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
)

// EntrySource provides the full store contents for bootstrapping peers.
type EntrySource interface {
	Entries() []synonyms.Entry
}

// PeerDirectory is the membership view the synchronizer needs.
type PeerDirectory interface {
	GetPeers() []string
	GetPeersNeedingSync() []string
	MarkSynced(addr string)
}

// Transport carries writes to a peer. Any error is treated as retryable.
type Transport interface {
	// Deliver sends one write; the peer must store it without forwarding.
	Deliver(ctx context.Context, peer, word string, syns []string) error
	// Import sends a full set of entries to a peer.
	Import(ctx context.Context, peer string, entries []synonyms.Entry) error
}

// peerPruner is implemented by transports that keep per-peer state. Each
// cycle passes the current peers so state for departed peers can go.
type peerPruner interface {
	Retain(peers []string)
}
