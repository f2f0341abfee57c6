package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"alterview/internal/domain"
)

// InMemoryStore is the in-process store used for local/dev runs and tests.
type InMemoryStore[S any] struct {
	mu        sync.RWMutex
	entities  map[string]Entity
	snapshots map[string][]Snapshot[S]
	lastStamp time.Time
}

func NewInMemoryStore[S any]() *InMemoryStore[S] {
	return &InMemoryStore[S]{
		entities:  make(map[string]Entity),
		snapshots: make(map[string][]Snapshot[S]),
	}
}

// nextStamp returns a UTC timestamp that is strictly later than every stamp
// previously handed out by this store, so snapshot order is stable even when
// the wall clock does not advance between writes.
func (s *InMemoryStore[S]) nextStamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = now
	return now
}

func (s *InMemoryStore[S]) Create(_ context.Context, ownerID string, initial S) (View[S], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nextStamp()
	snap := Snapshot[S]{
		ID:        uuid.NewString(),
		EntityID:  uuid.NewString(),
		CreatedAt: now,
		Payload:   initial,
	}
	ent := Entity{
		ID:               snap.EntityID,
		OwnerID:          ownerID,
		CreatedAt:        now,
		ActiveSnapshotID: snap.ID,
	}

	s.entities[ent.ID] = ent
	s.snapshots[ent.ID] = append(s.snapshots[ent.ID], snap)
	return View[S]{Entity: ent, Snapshot: snap}, nil
}

func (s *InMemoryStore[S]) Update(_ context.Context, entityID string, patch Patch[S]) (View[S], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entities[entityID]
	if !ok || ent.DeletedAt != nil {
		return View[S]{}, domain.ErrNotFound
	}

	active, ok := s.activeLocked(ent)
	if !ok {
		return View[S]{}, domain.ErrNotFound
	}

	merged, changed := patch.Apply(active.Payload)
	if !changed {
		return View[S]{}, ErrNoChange
	}

	snap := Snapshot[S]{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		CreatedAt: s.nextStamp(),
		Payload:   merged,
	}
	ent.ActiveSnapshotID = snap.ID
	s.entities[entityID] = ent
	s.snapshots[entityID] = append(s.snapshots[entityID], snap)
	return View[S]{Entity: ent, Snapshot: snap}, nil
}

func (s *InMemoryStore[S]) GetActive(_ context.Context, entityID string, includeDeleted bool) (View[S], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ent, ok := s.entities[entityID]
	if !ok {
		return View[S]{}, domain.ErrNotFound
	}
	if ent.DeletedAt != nil && !includeDeleted {
		return View[S]{}, domain.ErrNotFound
	}
	active, ok := s.activeLocked(ent)
	if !ok {
		return View[S]{}, domain.ErrNotFound
	}
	return View[S]{Entity: ent, Snapshot: active}, nil
}

func (s *InMemoryStore[S]) SoftDelete(_ context.Context, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entities[entityID]
	if !ok || ent.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := s.nextStamp()
	ent.DeletedAt = &now
	s.entities[entityID] = ent
	return nil
}

func (s *InMemoryStore[S]) History(_ context.Context, entityID string) ([]Snapshot[S], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities[entityID]; !ok {
		return nil, domain.ErrNotFound
	}
	chain := s.snapshots[entityID]
	out := make([]Snapshot[S], len(chain))
	copy(out, chain)
	return out, nil
}

func (s *InMemoryStore[S]) activeLocked(ent Entity) (Snapshot[S], bool) {
	for _, snap := range s.snapshots[ent.ID] {
		if snap.ID == ent.ActiveSnapshotID {
			return snap, true
		}
	}
	return Snapshot[S]{}, false
}
