package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alterview/internal/domain"
)

// Kind distinguishes uploaded files (stored elsewhere, referenced by URL)
// from external links that must be resolved to text before prompting.
type Kind string

const (
	KindFile Kind = "file"
	KindLink Kind = "link"
)

// Source is an attached material backing a profile's persona prompt.
type Source struct {
	ID        string     `json:"id"`
	ProfileID string     `json:"profile_id"`
	Kind      Kind       `json:"kind"`
	Label     string     `json:"label"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Store persists sources. ListByProfile returns live sources in creation
// order, which is the order they render in the prompt.
type Store interface {
	Create(ctx context.Context, profileID string, kind Kind, label, url string) (Source, error)
	Get(ctx context.Context, id string) (Source, error)
	ListByProfile(ctx context.Context, profileID string) ([]Source, error)
	SoftDelete(ctx context.Context, id string) error
}

func validate(kind Kind, label, url string) error {
	if kind != KindFile && kind != KindLink {
		return fmt.Errorf("%w: unknown source kind %q", domain.ErrValidation, kind)
	}
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: source label must not be empty", domain.ErrValidation)
	}
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: source url must not be empty", domain.ErrValidation)
	}
	return nil
}
