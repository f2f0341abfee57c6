package completion

import (
	"context"
	"errors"
)

// Role tags one transcript entry for the completion provider.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one ordered entry of the transcript sent upstream.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Typed provider failures. Callers treat all three the same way (abort the
// turn, nothing persisted downstream) but metrics and logs keep them apart.
var (
	ErrTimeout       = errors.New("completion: timeout")
	ErrProvider      = errors.New("completion: provider error")
	ErrEmptyResponse = errors.New("completion: empty response")
)

// Provider produces a single text reply for an ordered role-tagged history.
// Implementations must honor ctx cancellation and deadlines.
type Provider interface {
	Complete(ctx context.Context, history []Message) (string, error)
}
