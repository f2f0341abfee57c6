package source

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"alterview/internal/domain"
)

// InMemoryStore keeps sources in process memory for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	sources map[string]Source
	order   []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sources: make(map[string]Source)}
}

func (s *InMemoryStore) Create(_ context.Context, profileID string, kind Kind, label, url string) (Source, error) {
	if err := validate(kind, label, url); err != nil {
		return Source{}, err
	}

	src := Source{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Kind:      kind,
		Label:     label,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.ID] = src
	s.order = append(s.order, src.ID)
	return src, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	if !ok || src.DeletedAt != nil {
		return Source{}, domain.ErrNotFound
	}
	return src, nil
}

func (s *InMemoryStore) ListByProfile(_ context.Context, profileID string) ([]Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Source
	for _, id := range s.order {
		src := s.sources[id]
		if src.ProfileID == profileID && src.DeletedAt == nil {
			out = append(out, src)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SoftDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[id]
	if !ok || src.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	src.DeletedAt = &now
	s.sources[id] = src
	return nil
}
