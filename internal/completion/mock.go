package completion

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider produces deterministic local replies when no real provider is
// configured.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Complete(ctx context.Context, history []Message) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	default:
	}

	var lastUser string
	for _, m := range history {
		if m.Role == RoleUser {
			lastUser = m.Content
		}
	}
	lastUser = strings.TrimSpace(lastUser)
	if lastUser == "" {
		return "무엇이든 물어보세요.", nil
	}
	return fmt.Sprintf("질문 잘 들었습니다: %s", lastUser), nil
}
