package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"alterview/internal/domain"
	"alterview/internal/profile"
	"alterview/internal/snapshot"
	"alterview/internal/source"
)

type profileResponse struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	CreatedAt  time.Time       `json:"created_at"`
	SnapshotID string          `json:"snapshot_id"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Changed    bool            `json:"changed"`
	Profile    profile.Payload `json:"profile"`
}

func profileFromView(v snapshot.View[profile.Payload], changed bool) profileResponse {
	return profileResponse{
		ID:         v.Entity.ID,
		OwnerID:    v.Entity.OwnerID,
		CreatedAt:  v.Entity.CreatedAt,
		SnapshotID: v.Snapshot.ID,
		UpdatedAt:  v.Snapshot.CreatedAt,
		Changed:    changed,
		Profile:    v.Snapshot.Payload,
	}
}

type experienceResponse struct {
	ID         string                    `json:"id"`
	SnapshotID string                    `json:"snapshot_id"`
	UpdatedAt  time.Time                 `json:"updated_at"`
	Changed    bool                      `json:"changed"`
	Experience profile.ExperiencePayload `json:"experience"`
}

func experienceFromView(v snapshot.View[profile.ExperiencePayload], changed bool) experienceResponse {
	return experienceResponse{
		ID:         v.Entity.ID,
		SnapshotID: v.Snapshot.ID,
		UpdatedAt:  v.Snapshot.CreatedAt,
		Changed:    changed,
		Experience: v.Snapshot.Payload,
	}
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var payload profile.Payload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	view, err := s.profiles.CreateProfile(r.Context(), callerID(r.Context()), payload)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	s.metrics.CountSnapshotWrite("profile", "create")
	respondJSON(w, http.StatusCreated, profileFromView(view, true))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.profiles.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profileFromView(view, false))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch profile.Patch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	view, err := s.profiles.UpdateProfile(r.Context(), callerID(r.Context()), id, patch)
	if errors.Is(err, snapshot.ErrNoChange) {
		view, err = s.profiles.GetProfile(r.Context(), id)
		if err != nil {
			s.respondMapped(w, err)
			return
		}
		respondJSON(w, http.StatusOK, profileFromView(view, false))
		return
	}
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	s.metrics.CountSnapshotWrite("profile", "update")
	respondJSON(w, http.StatusOK, profileFromView(view, true))
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.DeleteProfile(r.Context(), callerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.respondMapped(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfileHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.profiles.ProfileHistory(r.Context(), callerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"snapshots": history})
}

func (s *Server) handlePersonaPrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	owner, err := s.profiles.ProfileOwner(r.Context(), id)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	if owner != callerID(r.Context()) {
		s.respondMapped(w, domain.ErrNotFound)
		return
	}
	prompt, err := s.profiles.PersonaPrompt(r.Context(), id, time.Now())
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func (s *Server) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	var payload profile.ExperiencePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	view, err := s.profiles.AddExperience(r.Context(), callerID(r.Context()), chi.URLParam(r, "id"), payload)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	s.metrics.CountSnapshotWrite("experience", "create")
	respondJSON(w, http.StatusCreated, experienceFromView(view, true))
}

func (s *Server) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	var patch profile.ExperiencePatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	view, err := s.profiles.UpdateExperience(r.Context(), callerID(r.Context()), chi.URLParam(r, "id"), patch)
	if errors.Is(err, snapshot.ErrNoChange) {
		respondJSON(w, http.StatusOK, map[string]bool{"changed": false})
		return
	}
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	s.metrics.CountSnapshotWrite("experience", "update")
	respondJSON(w, http.StatusOK, experienceFromView(view, true))
}

func (s *Server) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	err := s.profiles.DeleteExperience(r.Context(), callerID(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "expID"))
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind  string `json:"kind"`
		Label string `json:"label"`
		URL   string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	src, err := s.profiles.AddSource(r.Context(), callerID(r.Context()), chi.URLParam(r, "id"), source.Kind(strings.TrimSpace(req.Kind)), req.Label, req.URL)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.DeleteSource(r.Context(), callerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.respondMapped(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
