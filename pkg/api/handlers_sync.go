package api

import (
	"context"
	"net/http"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
	"github.com/dd0wney/cluso-synonyms/pkg/validation"
)

// POST /api/synchronization with a JSON array of entries. Imports are
// applied locally and never forwarded; a node accepts them before its own
// cluster definition arrives.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var entries []synonyms.Entry
	rd := s.newRequestDecoder(w, r).DecodeJSON(&entries)
	if rd.RespondError() {
		return
	}

	req := validation.ImportRequest{Entries: make([]validation.ImportEntry, len(entries))}
	for i, e := range entries {
		req.Entries[i] = validation.ImportEntry{Word: e.Word, Synonyms: e.Synonyms}
	}
	if rd.Validate(req).RespondError() {
		return
	}

	s.logger.Info("incoming synchronization import", logging.Count(len(entries)))
	if err := s.store.Import(entries); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/synchronization/run starts one replication cycle in the
// background. Requests arriving while a cycle runs start nothing new.
func (s *Server) handleRunSync(w http.ResponseWriter, r *http.Request) {
	pending := s.replicator.PendingCount()
	started := s.replicator.Trigger(context.WithoutCancel(r.Context()))

	s.respondJSON(w, http.StatusAccepted, SyncAcceptedResponse{PendingBatches: pending, Started: started})
}

// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, StatusResponse{
		Self:           s.registry.Self(),
		Ready:          s.registry.IsReady(),
		Store:          s.store.Stats(),
		Peers:          s.registry.Snapshot(),
		PendingBatches: s.replicator.PendingCount(),
		Locale:         s.store.Locale().String(),
	})
}
