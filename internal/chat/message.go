package chat

import (
	"fmt"
	"strings"
	"time"

	"alterview/internal/domain"
)

// Role is derived from a message's speaker variant, never stored on its own.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Speaker is a tagged variant: a visiting user, the profile persona, or the
// system. The zero value is the system speaker, so the illegal "both ids
// set" state cannot be constructed.
type Speaker struct {
	role Role
	id   string
}

func UserSpeaker(userID string) Speaker { return Speaker{role: RoleUser, id: userID} }

func ProfileSpeaker(profileID string) Speaker { return Speaker{role: RoleAssistant, id: profileID} }

func SystemSpeaker() Speaker { return Speaker{} }

func (s Speaker) Role() Role {
	if s.role == "" {
		return RoleSystem
	}
	return s.role
}

// UserID returns the speaking user's id for user-role speakers.
func (s Speaker) UserID() (string, bool) {
	if s.role == RoleUser {
		return s.id, true
	}
	return "", false
}

// ProfileID returns the answering profile's id for assistant-role speakers.
func (s Speaker) ProfileID() (string, bool) {
	if s.role == RoleAssistant {
		return s.id, true
	}
	return "", false
}

// speakerFromColumns rebuilds the variant from the nullable foreign-key pair
// a store persists. Both set is corrupt data and is rejected.
func speakerFromColumns(userID, profileID *string) (Speaker, error) {
	switch {
	case userID != nil && profileID != nil:
		return Speaker{}, fmt.Errorf("message has both user and profile speakers")
	case userID != nil:
		return UserSpeaker(*userID), nil
	case profileID != nil:
		return ProfileSpeaker(*profileID), nil
	default:
		return SystemSpeaker(), nil
	}
}

// Message is one immutable entry of a room's history. ID and CreatedAt are
// assigned by the store on append.
type Message struct {
	ID        string
	RoomID    string
	CreatedAt time.Time
	Text      string
	Speaker   Speaker
}

func NewUserMessage(roomID, userID, text string) (Message, error) {
	if strings.TrimSpace(userID) == "" {
		return Message{}, fmt.Errorf("%w: user message needs a speaker id", domain.ErrValidation)
	}
	return newMessage(roomID, UserSpeaker(userID), text)
}

func NewProfileMessage(roomID, profileID, text string) (Message, error) {
	if strings.TrimSpace(profileID) == "" {
		return Message{}, fmt.Errorf("%w: profile message needs a speaker id", domain.ErrValidation)
	}
	return newMessage(roomID, ProfileSpeaker(profileID), text)
}

func NewSystemMessage(roomID, text string) (Message, error) {
	return newMessage(roomID, SystemSpeaker(), text)
}

func newMessage(roomID string, speaker Speaker, text string) (Message, error) {
	if strings.TrimSpace(roomID) == "" {
		return Message{}, fmt.Errorf("%w: message needs a room id", domain.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return Message{}, fmt.Errorf("%w: message text must not be empty", domain.ErrValidation)
	}
	return Message{RoomID: roomID, Text: text, Speaker: speaker}, nil
}
