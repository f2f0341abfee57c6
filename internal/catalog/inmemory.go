package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"alterview/internal/domain"
)

// InMemoryStore keeps the keyword catalog in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	keywords map[string]Keyword
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{keywords: make(map[string]Keyword)}
}

func (s *InMemoryStore) Create(_ context.Context, kind Kind, name string) (Keyword, error) {
	if err := validate(kind, name); err != nil {
		return Keyword{}, err
	}

	kw := Keyword{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords[kw.ID] = kw
	return kw, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kw, ok := s.keywords[id]
	if !ok {
		return Keyword{}, domain.ErrNotFound
	}
	return kw, nil
}

func (s *InMemoryStore) Resolve(_ context.Context, ids []string) ([]Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Keyword, 0, len(ids))
	for _, id := range ids {
		if kw, ok := s.keywords[id]; ok {
			out = append(out, kw)
		}
	}
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, kind Kind) ([]Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Keyword
	for _, kw := range s.keywords {
		if kw.Kind == kind {
			out = append(out, kw)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
