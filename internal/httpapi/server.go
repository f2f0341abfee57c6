package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"alterview/internal/auth"
	"alterview/internal/catalog"
	"alterview/internal/chat"
	"alterview/internal/config"
	"alterview/internal/domain"
	"alterview/internal/observability"
	"alterview/internal/profile"
	"alterview/internal/snapshot"
)

type Server struct {
	cfg          config.Config
	profiles     *profile.Service
	keywords     catalog.Store
	rooms        chat.Store
	orchestrator *chat.Orchestrator
	hub          *chat.Hub
	verifier     *auth.TokenVerifier
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
	ready        func(ctx context.Context) error
}

func New(cfg config.Config, profiles *profile.Service, keywords catalog.Store, rooms chat.Store, orchestrator *chat.Orchestrator, hub *chat.Hub, verifier *auth.TokenVerifier, metrics *observability.Metrics, ready func(ctx context.Context) error) *Server {
	return &Server{
		cfg:          cfg,
		profiles:     profiles,
		keywords:     keywords,
		rooms:        rooms,
		orchestrator: orchestrator,
		hub:          hub,
		verifier:     verifier,
		metrics:      metrics,
		ready:        ready,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	if s.cfg.AuthDevTokens {
		r.Post("/v1/auth/token", s.handleMintToken)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/v1/profiles", s.handleCreateProfile)
		r.Get("/v1/profiles/{id}", s.handleGetProfile)
		r.Patch("/v1/profiles/{id}", s.handleUpdateProfile)
		r.Delete("/v1/profiles/{id}", s.handleDeleteProfile)
		r.Get("/v1/profiles/{id}/history", s.handleProfileHistory)
		r.Get("/v1/profiles/{id}/prompt", s.handlePersonaPrompt)

		r.Post("/v1/profiles/{id}/experiences", s.handleAddExperience)
		r.Patch("/v1/experiences/{id}", s.handleUpdateExperience)
		r.Delete("/v1/profiles/{id}/experiences/{expID}", s.handleDeleteExperience)

		r.Post("/v1/profiles/{id}/sources", s.handleAddSource)
		r.Delete("/v1/sources/{id}", s.handleDeleteSource)

		r.Post("/v1/keywords", s.handleCreateKeyword)
		r.Get("/v1/keywords", s.handleListKeywords)

		r.Post("/v1/rooms", s.handleCreateRoom)
		r.Get("/v1/rooms/{id}", s.handleGetRoom)
		r.Delete("/v1/rooms/{id}", s.handleDeleteRoom)
		r.Post("/v1/rooms/{id}/messages", s.handleChatTurn)
		r.Get("/v1/rooms/{id}/messages", s.handleListMessages)
		r.Get("/v1/rooms/{id}/ws", s.handleRoomWS)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	token, err := s.verifier.Mint(strings.TrimSpace(req.UserID))
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

type ctxKey int

const callerKey ctxKey = 0

func callerID(ctx context.Context) string {
	id, _ := ctx.Value(callerKey).(string)
	return id
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearer(r.Header.Get("Authorization"))
		if err != nil {
			s.respondMapped(w, err)
			return
		}
		userID, err := s.verifier.Verify(token)
		if err != nil {
			s.respondMapped(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, userID)))
	})
}

// respondMapped translates domain errors into HTTP status codes.
func (s *Server) respondMapped(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		respondError(w, http.StatusBadGateway, "upstream_unavailable", "completion provider unavailable")
	case errors.Is(err, snapshot.ErrNoChange):
		// Callers that treat no-change as success should not reach here.
		respondError(w, http.StatusConflict, "no_change", "update matched the active snapshot")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
