package chat

import (
	"context"
	"time"
)

// Room scopes one conversation between a visiting user and a profile.
type Room struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ProfileID string     `json:"profile_id"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Store persists rooms and their append-only message history.
//
// AppendMessage assigns the message id and a CreatedAt that is never earlier
// than any timestamp already visible in the same room. SeedSystemMessage is
// insert-if-absent at the store level: it reports seeded=false without
// writing when the room already has a system message, so at most one seed
// can ever exist per room no matter how callers race.
type Store interface {
	CreateRoom(ctx context.Context, userID, profileID string) (Room, error)
	GetRoom(ctx context.Context, roomID string) (Room, error)
	SoftDeleteRoom(ctx context.Context, roomID string) error
	AppendMessage(ctx context.Context, msg Message) (Message, error)
	ListMessages(ctx context.Context, roomID string) ([]Message, error)
	SeedSystemMessage(ctx context.Context, roomID, text string) (Message, bool, error)
}
