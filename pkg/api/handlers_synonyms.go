package api

import (
	"net/http"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/validation"
)

// POST /api/synonyms?word=<w>&distribute=<bool> with a JSON array of synonyms.
func (s *Server) handleAddSynonyms(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}

	q := r.URL.Query()
	word := q.Get("word")
	distribute, err := parseDistribute(q.Get("distribute"))

	var syns []string
	rd := s.newRequestDecoder(w, r).
		Then(err).
		DecodeJSON(&syns).
		Validate(validation.AddSynonymsRequest{Word: word, Synonyms: syns})
	if rd.RespondError() {
		return
	}

	if err := s.store.AddSynonyms(word, syns); err != nil {
		s.internalError(w, r, err)
		return
	}

	if distribute {
		s.replicator.Propagate(r.Context(), word, syns)
	} else {
		s.logger.Debug("replicated write applied", logging.Word(word), logging.Count(len(syns)))
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/synonyms?word=<w>&limit=<n>
func (s *Server) handleGetSynonyms(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}

	q := r.URL.Query()
	req := validation.QuerySynonymsRequest{Word: q.Get("word")}
	limit, err := parseLimit(q.Get("limit"))
	req.Limit = limit

	// a bad word is reported before a bad limit
	rd := s.newRequestDecoder(w, r)
	if req.Word != "" {
		rd.Then(err)
	}
	if rd.Validate(&req).RespondError() {
		return
	}

	s.respondJSON(w, http.StatusOK, s.store.GetSynonyms(req.Word, req.Limit))
}
