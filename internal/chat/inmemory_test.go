package chat

import (
	"context"
	"errors"
	"testing"

	"alterview/internal/domain"
)

func TestInMemoryStoreRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	room, err := store.CreateRoom(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if room.ID == "" || room.UserID != "u1" || room.ProfileID != "p1" {
		t.Fatalf("CreateRoom() = %+v", room)
	}

	got, err := store.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom() error = %v", err)
	}
	if got.ID != room.ID {
		t.Fatalf("GetRoom() id = %q, want %q", got.ID, room.ID)
	}

	if err := store.SoftDeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("SoftDeleteRoom() error = %v", err)
	}
	if _, err := store.GetRoom(ctx, room.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetRoom() after delete error = %v, want ErrNotFound", err)
	}
}

func TestInMemoryStoreGetRoomUnknown(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.GetRoom(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetRoom() error = %v, want ErrNotFound", err)
	}
}

func TestInMemoryStoreMessageTimestampsAdvance(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	room, _ := store.CreateRoom(ctx, "u1", "p1")

	var prev Message
	for i := 0; i < 50; i++ {
		msg, _ := NewUserMessage(room.ID, "u1", "tick")
		stored, err := store.AppendMessage(ctx, msg)
		if err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
		if i > 0 && !stored.CreatedAt.After(prev.CreatedAt) {
			t.Fatalf("message %d timestamp %v not after %v", i, stored.CreatedAt, prev.CreatedAt)
		}
		prev = stored
	}

	msgs, err := store.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 50 {
		t.Fatalf("ListMessages() returned %d messages, want 50", len(msgs))
	}
}

func TestInMemoryStoreSeedsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	room, _ := store.CreateRoom(ctx, "u1", "p1")

	first, seeded, err := store.SeedSystemMessage(ctx, room.ID, "prompt one")
	if err != nil {
		t.Fatalf("SeedSystemMessage() error = %v", err)
	}
	if !seeded {
		t.Fatal("first seed: seeded = false, want true")
	}
	if first.Speaker.Role() != RoleSystem {
		t.Fatalf("seed role = %q, want system", first.Speaker.Role())
	}

	second, seeded, err := store.SeedSystemMessage(ctx, room.ID, "prompt two")
	if err != nil {
		t.Fatalf("second SeedSystemMessage() error = %v", err)
	}
	if seeded {
		t.Fatal("second seed: seeded = true, want false")
	}
	if second.ID != first.ID || second.Text != "prompt one" {
		t.Fatalf("second seed returned %+v, want the original seed", second)
	}
}

func TestInMemoryStoreSeedUnknownRoom(t *testing.T) {
	store := NewInMemoryStore()
	if _, _, err := store.SeedSystemMessage(context.Background(), "nope", "p"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SeedSystemMessage() error = %v, want ErrNotFound", err)
	}
}
