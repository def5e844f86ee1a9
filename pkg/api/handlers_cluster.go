package api

import (
	"net/http"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/validation"
)

// POST /api/cluster?thisInstance=<addr> with a JSON array of addresses.
func (s *Server) handleDefineCluster(w http.ResponseWriter, r *http.Request) {
	self := r.URL.Query().Get("thisInstance")

	var all []string
	rd := s.newRequestDecoder(w, r).
		DecodeJSON(&all).
		Validate(validation.DefineClusterRequest{ThisInstance: self, AllInstances: all})
	if rd.RespondError() {
		return
	}

	if err := s.registry.SetMembers(self, all); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("cluster defined",
		logging.String("self", self),
		logging.Peers(s.registry.GetPeers()),
		logging.Strings("needs_full_sync", s.registry.GetPeersNeedingSync()))
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/cluster
func (s *Server) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	members := s.registry.GetMembers()
	if members == nil {
		members = []string{}
	}
	s.respondJSON(w, http.StatusOK, members)
}
