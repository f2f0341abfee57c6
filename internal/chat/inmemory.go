package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"alterview/internal/domain"
)

// InMemoryStore keeps rooms and messages in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]Room
	messages map[string][]Message
	stamps   map[string]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rooms:    make(map[string]Room),
		messages: make(map[string][]Message),
		stamps:   make(map[string]time.Time),
	}
}

// nextStamp keeps message timestamps strictly increasing within a room so
// history order matches persistence order even under a coarse clock.
func (s *InMemoryStore) nextStamp(roomID string) time.Time {
	now := time.Now().UTC()
	if last, ok := s.stamps[roomID]; ok && !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	s.stamps[roomID] = now
	return now
}

func (s *InMemoryStore) CreateRoom(_ context.Context, userID, profileID string) (Room, error) {
	room := Room{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProfileID: profileID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return room, nil
}

func (s *InMemoryStore) GetRoom(_ context.Context, roomID string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok || room.DeletedAt != nil {
		return Room{}, domain.ErrNotFound
	}
	return room, nil
}

func (s *InMemoryStore) SoftDeleteRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || room.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	room.DeletedAt = &now
	s.rooms[roomID] = room
	return nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[msg.RoomID]
	if !ok || room.DeletedAt != nil {
		return Message{}, domain.ErrNotFound
	}

	msg.ID = uuid.NewString()
	msg.CreatedAt = s.nextStamp(msg.RoomID)
	s.messages[msg.RoomID] = append(s.messages[msg.RoomID], msg)
	return msg, nil
}

func (s *InMemoryStore) ListMessages(_ context.Context, roomID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, domain.ErrNotFound
	}
	msgs := s.messages[roomID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *InMemoryStore) SeedSystemMessage(_ context.Context, roomID, text string) (Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok || room.DeletedAt != nil {
		return Message{}, false, domain.ErrNotFound
	}

	for _, m := range s.messages[roomID] {
		if m.Speaker.Role() == RoleSystem {
			return m, false, nil
		}
	}

	msg, err := NewSystemMessage(roomID, text)
	if err != nil {
		return Message{}, false, err
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = s.nextStamp(roomID)
	s.messages[roomID] = append(s.messages[roomID], msg)
	return msg, true, nil
}
