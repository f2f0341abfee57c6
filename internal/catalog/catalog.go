package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alterview/internal/domain"
)

// Kind partitions the keyword catalog.
type Kind string

const (
	KindPosition    Kind = "position"
	KindSkill       Kind = "skill"
	KindPersonality Kind = "personality"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPosition, KindSkill, KindPersonality:
		return true
	}
	return false
}

// Keyword is one catalog entry; profiles reference keywords by id set.
type Keyword struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the keyword catalog. Resolve keeps input order and silently skips
// ids with no live entry; a profile snapshot may reference keywords that
// were removed after it was taken.
type Store interface {
	Create(ctx context.Context, kind Kind, name string) (Keyword, error)
	Get(ctx context.Context, id string) (Keyword, error)
	Resolve(ctx context.Context, ids []string) ([]Keyword, error)
	List(ctx context.Context, kind Kind) ([]Keyword, error)
}

func validate(kind Kind, name string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown keyword kind %q", domain.ErrValidation, kind)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: keyword name must not be empty", domain.ErrValidation)
	}
	return nil
}
