package snapshot

import (
	"context"
	"errors"
	"testing"

	"alterview/internal/domain"
)

type notePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type notePatch struct {
	Title *string
	Body  *string
}

func (p notePatch) Apply(cur notePayload) (notePayload, bool) {
	next := cur
	changed := false
	if p.Title != nil && *p.Title != cur.Title {
		next.Title = *p.Title
		changed = true
	}
	if p.Body != nil && *p.Body != cur.Body {
		next.Body = *p.Body
		changed = true
	}
	return next, changed
}

func strPtr(s string) *string { return &s }

func TestCreateAndGetActive(t *testing.T) {
	s := NewInMemoryStore[notePayload]()
	ctx := context.Background()

	view, err := s.Create(ctx, "owner-1", notePayload{Title: "a", Body: "b"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if view.Entity.ID == "" || view.Entity.ActiveSnapshotID != view.Snapshot.ID {
		t.Fatalf("entity not pointing at first snapshot: %+v", view)
	}

	got, err := s.GetActive(ctx, view.Entity.ID, false)
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if got.Snapshot.Payload != (notePayload{Title: "a", Body: "b"}) {
		t.Fatalf("payload = %+v, want initial", got.Snapshot.Payload)
	}
}

func TestGetActiveNotFound(t *testing.T) {
	s := NewInMemoryStore[notePayload]()
	if _, err := s.GetActive(context.Background(), "missing", false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetActive() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateNoopWritesNothing(t *testing.T) {
	s := NewInMemoryStore[notePayload]()
	ctx := context.Background()

	view, err := s.Create(ctx, "owner-1", notePayload{Title: "a", Body: "b"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = s.Update(ctx, view.Entity.ID, notePatch{Title: strPtr("a")})
	if !errors.Is(err, ErrNoChange) {
		t.Fatalf("Update() error = %v, want ErrNoChange", err)
	}

	hist, err := s.History(ctx, view.Entity.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("snapshot count = %d, want 1 after no-op update", len(hist))
	}
}

func TestUpdateAppendsAndRepoints(t *testing.T) {
	s := NewInMemoryStore[notePayload]()
	ctx := context.Background()

	view, err := s.Create(ctx, "owner-1", notePayload{Title: "a", Body: "b"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := s.Update(ctx, view.Entity.ID, notePatch{Title: strPtr("c")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Snapshot.Payload.Title != "c" || updated.Snapshot.Payload.Body != "b" {
		t.Fatalf("merged payload = %+v, want title replaced, body kept", updated.Snapshot.Payload)
	}
	if updated.Entity.ActiveSnapshotID != updated.Snapshot.ID {
		t.Fatalf("active pointer not repointed: %+v", updated.Entity)
	}
	if !updated.Snapshot.CreatedAt.After(view.Snapshot.CreatedAt) {
		t.Fatalf("new snapshot CreatedAt %v not after previous %v",
			updated.Snapshot.CreatedAt, view.Snapshot.CreatedAt)
	}
}

func TestSnapshotsStayImmutableAcrossUpdates(t *testing.T) {
	s := NewInMemoryStore[notePayload]()
	ctx := context.Background()

	view, err := s.Create(ctx, "owner-1", notePayload{Title: "v1", Body: "b"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	firstID := view.Snapshot.ID

	for _, title := range []string{"v2", "v3", "v4"} {
		if _, err := s.Update(ctx, view.Entity.ID, notePatch{Title: strPtr(title)}); err != nil {
			t.Fatalf("Update(%q) error = %v", title, err)
		}
	}

	hist, err := s.History(ctx, view.Entity.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != 4 {
		t.Fatalf("snapshot count = %d, want 4", len(hist))
	}
	if hist[0].ID != firstID || hist[0].Payload.Title != "v1" {
		t.Fatalf("first snapshot changed: %+v", hist[0])
	}
	for i := 1; i < len(hist); i++ {
		if !hist[i].CreatedAt.After(hist[i-1].CreatedAt) {
			t.Fatalf("history not strictly ordered at %d: %v then %v",
				i, hist[i-1].CreatedAt, hist[i].CreatedAt)
		}
	}
}

func TestSoftDeleteHidesFromNormalReads(t *testing.T) {
	s := NewInMemoryStore[notePayload]()
	ctx := context.Background()

	view, err := s.Create(ctx, "owner-1", notePayload{Title: "a"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.SoftDelete(ctx, view.Entity.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	if _, err := s.GetActive(ctx, view.Entity.ID, false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetActive() error = %v, want ErrNotFound after soft delete", err)
	}

	got, err := s.GetActive(ctx, view.Entity.ID, true)
	if err != nil {
		t.Fatalf("GetActive(includeDeleted) error = %v", err)
	}
	if got.Entity.DeletedAt == nil {
		t.Fatalf("DeletedAt should be set on administrative read")
	}

	if _, err := s.Update(ctx, view.Entity.ID, notePatch{Title: strPtr("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Update() after delete error = %v, want ErrNotFound", err)
	}

	hist, err := s.History(ctx, view.Entity.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("soft delete must not remove snapshots, count = %d", len(hist))
	}
}
