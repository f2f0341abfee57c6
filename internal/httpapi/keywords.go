package httpapi

import (
	"net/http"
	"strings"

	"alterview/internal/catalog"
)

func (s *Server) handleCreateKeyword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	kw, err := s.keywords.Create(r.Context(), catalog.Kind(strings.TrimSpace(req.Kind)), req.Name)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, kw)
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(strings.TrimSpace(r.URL.Query().Get("kind")))
	kws, err := s.keywords.List(r.Context(), kind)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"keywords": kws})
}
