package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"alterview/internal/chat"
	"alterview/internal/domain"
)

type messageResponse struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Role      chat.Role `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func messageFrom(m chat.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Role:      m.Speaker.Role(),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID string `json:"profile_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.ProfileID = strings.TrimSpace(req.ProfileID)
	if req.ProfileID == "" {
		respondError(w, http.StatusBadRequest, "validation_failed", "profile_id is required")
		return
	}

	// The profile must exist and be live before a room can target it.
	if _, err := s.profiles.GetProfile(r.Context(), req.ProfileID); err != nil {
		s.respondMapped(w, err)
		return
	}

	room, err := s.rooms.CreateRoom(r.Context(), callerID(r.Context()), req.ProfileID)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, room)
}

func (s *Server) roomForCaller(r *http.Request) (chat.Room, error) {
	room, err := s.rooms.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return chat.Room{}, err
	}
	if room.UserID != callerID(r.Context()) {
		return chat.Room{}, domain.ErrNotFound
	}
	return room, nil
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomForCaller(r)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomForCaller(r)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	if err := s.rooms.SoftDeleteRoom(r.Context(), room.ID); err != nil {
		s.respondMapped(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChatTurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	reply, err := s.orchestrator.Chat(r.Context(), callerID(r.Context()), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageFrom(reply))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.orchestrator.History(r.Context(), callerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageFrom(m))
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) handleRoomWS(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomForCaller(r)
	if err != nil {
		s.respondMapped(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	msgs, cancel := s.hub.Subscribe(room.ID)
	defer cancel()

	// Reader pump: the client sends nothing we act on, but reading is
	// what surfaces the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 16)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(messageFrom(msg)); err != nil {
				return
			}
		}
	}
}
