package snapshot

import (
	"context"
	"errors"
	"time"
)

// Entity is the mutable-looking head of an append-only snapshot chain.
// Identity, owner and creation time never change after Create; the active
// pointer is the only field ever overwritten in place.
type Entity struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	CreatedAt        time.Time  `json:"created_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	ActiveSnapshotID string     `json:"active_snapshot_id"`
}

// Snapshot is one immutable version of an entity's payload. Snapshots are
// never updated or deleted; history is the chain of snapshots ordered by
// CreatedAt.
type Snapshot[S any] struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	CreatedAt time.Time `json:"created_at"`
	Payload   S         `json:"payload"`
}

// View joins an entity with its currently active snapshot.
type View[S any] struct {
	Entity   Entity
	Snapshot Snapshot[S]
}

// ErrNoChange signals that an update matched the active payload field for
// field and nothing was written.
var ErrNoChange = errors.New("snapshot: no change")

// Patch applies partial changes to a payload. Apply returns the merged
// payload and whether any compared field actually differed; fields absent
// from the patch are left untouched and not compared.
type Patch[S any] interface {
	Apply(current S) (S, bool)
}

// Store versions one kind of entity. Update inserts the new snapshot and
// repoints the active pointer as a single atomic unit; a reader never
// observes one without the other.
type Store[S any] interface {
	Create(ctx context.Context, ownerID string, initial S) (View[S], error)
	Update(ctx context.Context, entityID string, patch Patch[S]) (View[S], error)
	GetActive(ctx context.Context, entityID string, includeDeleted bool) (View[S], error)
	SoftDelete(ctx context.Context, entityID string) error
	History(ctx context.Context, entityID string) ([]Snapshot[S], error)
}
