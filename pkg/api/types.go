package api

import (
	"context"

	"github.com/dd0wney/cluso-synonyms/pkg/client"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// StatusResponse is the body of GET /api/status. It is the type the Go
// client decodes, so the two cannot drift apart.
type StatusResponse = client.NodeStatus

// SyncAcceptedResponse is the body of POST /api/synchronization/run.
type SyncAcceptedResponse struct {
	PendingBatches int `json:"pending_batches"`
	// Started is false when a cycle was already running and the request
	// was folded into it.
	Started bool `json:"started"`
}

// Replicator distributes accepted writes to the rest of the cluster.
type Replicator interface {
	Propagate(ctx context.Context, word string, syns []string)
	Trigger(ctx context.Context) bool
	PendingCount() int
	IsRunning() bool
}
