package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"alterview/internal/domain"
)

// PostgresStore persists one entity kind in PostgreSQL. Payloads travel as
// JSONB so a single pair of tables serves every instantiation; the kind
// column keeps the chains apart.
type PostgresStore[S any] struct {
	pool *pgxpool.Pool
	kind string
}

func NewPostgresStore[S any](ctx context.Context, pool *pgxpool.Pool, kind string) (*PostgresStore[S], error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresStore[S]{pool: pool, kind: kind}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS versioned_entities (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ,
			active_snapshot_id TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entity_snapshots (
			id TEXT PRIMARY KEY,
			entity_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entity_snapshots_entity_created
			ON entity_snapshots (entity_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_versioned_entities_kind_owner
			ON versioned_entities (kind, owner_id);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init snapshot schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore[S]) Create(ctx context.Context, ownerID string, initial S) (View[S], error) {
	payload, err := json.Marshal(initial)
	if err != nil {
		return View[S]{}, fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now().UTC()
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return View[S]{}, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO entity_snapshots (id, entity_id, created_at, payload) VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.EntityID, snap.CreatedAt, payload,
	); err != nil {
		return View[S]{}, fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO versioned_entities (id, kind, owner_id, created_at, active_snapshot_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		ent.ID, s.kind, ent.OwnerID, ent.CreatedAt, ent.ActiveSnapshotID,
	); err != nil {
		return View[S]{}, fmt.Errorf("insert entity: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return View[S]{}, fmt.Errorf("commit create: %w", err)
	}

	return View[S]{Entity: ent, Snapshot: snap}, nil
}

func (s *PostgresStore[S]) Update(ctx context.Context, entityID string, patch Patch[S]) (View[S], error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return View[S]{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	var ent Entity
	err = tx.QueryRow(ctx,
		`SELECT id, owner_id, created_at, deleted_at, active_snapshot_id
		 FROM versioned_entities WHERE id=$1 AND kind=$2 FOR UPDATE`,
		entityID, s.kind,
	).Scan(&ent.ID, &ent.OwnerID, &ent.CreatedAt, &ent.DeletedAt, &ent.ActiveSnapshotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return View[S]{}, domain.ErrNotFound
	}
	if err != nil {
		return View[S]{}, fmt.Errorf("load entity: %w", err)
	}
	if ent.DeletedAt != nil {
		return View[S]{}, domain.ErrNotFound
	}

	var active Snapshot[S]
	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT id, entity_id, created_at, payload FROM entity_snapshots WHERE id=$1`,
		ent.ActiveSnapshotID,
	).Scan(&active.ID, &active.EntityID, &active.CreatedAt, &raw)
	if err != nil {
		return View[S]{}, fmt.Errorf("load active snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &active.Payload); err != nil {
		return View[S]{}, fmt.Errorf("unmarshal payload: %w", err)
	}

	merged, changed := patch.Apply(active.Payload)
	if !changed {
		return View[S]{}, ErrNoChange
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return View[S]{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Snapshot order is by created_at; never stamp behind the snapshot we
	// are replacing even with clock skew.
	now := time.Now().UTC()
	if !now.After(active.CreatedAt) {
		now = active.CreatedAt.Add(time.Microsecond)
	}
	snap := Snapshot[S]{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		CreatedAt: now,
		Payload:   merged,
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO entity_snapshots (id, entity_id, created_at, payload) VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.EntityID, snap.CreatedAt, payload,
	); err != nil {
		return View[S]{}, fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE versioned_entities SET active_snapshot_id=$1 WHERE id=$2`,
		snap.ID, entityID,
	); err != nil {
		return View[S]{}, fmt.Errorf("repoint active snapshot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return View[S]{}, fmt.Errorf("commit update: %w", err)
	}

	ent.ActiveSnapshotID = snap.ID
	return View[S]{Entity: ent, Snapshot: snap}, nil
}

func (s *PostgresStore[S]) GetActive(ctx context.Context, entityID string, includeDeleted bool) (View[S], error) {
	var (
		ent  Entity
		snap Snapshot[S]
		raw  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT e.id, e.owner_id, e.created_at, e.deleted_at, e.active_snapshot_id,
		        s.id, s.entity_id, s.created_at, s.payload
		 FROM versioned_entities e
		 JOIN entity_snapshots s ON s.id = e.active_snapshot_id
		 WHERE e.id=$1 AND e.kind=$2`,
		entityID, s.kind,
	).Scan(
		&ent.ID, &ent.OwnerID, &ent.CreatedAt, &ent.DeletedAt, &ent.ActiveSnapshotID,
		&snap.ID, &snap.EntityID, &snap.CreatedAt, &raw,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return View[S]{}, domain.ErrNotFound
	}
	if err != nil {
		return View[S]{}, fmt.Errorf("get active: %w", err)
	}
	if ent.DeletedAt != nil && !includeDeleted {
		return View[S]{}, domain.ErrNotFound
	}
	if err := json.Unmarshal(raw, &snap.Payload); err != nil {
		return View[S]{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return View[S]{Entity: ent, Snapshot: snap}, nil
}

func (s *PostgresStore[S]) SoftDelete(ctx context.Context, entityID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE versioned_entities SET deleted_at=now()
		 WHERE id=$1 AND kind=$2 AND deleted_at IS NULL`,
		entityID, s.kind,
	)
	if err != nil {
		return fmt.Errorf("soft delete entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStore[S]) History(ctx context.Context, entityID string) ([]Snapshot[S], error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM versioned_entities WHERE id=$1 AND kind=$2)`,
		entityID, s.kind,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check entity: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, entity_id, created_at, payload
		 FROM entity_snapshots WHERE entity_id=$1 ORDER BY created_at ASC`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Snapshot[S]
	for rows.Next() {
		var (
			snap Snapshot[S]
			raw  []byte
		)
		if err := rows.Scan(&snap.ID, &snap.EntityID, &snap.CreatedAt, &raw); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if err := json.Unmarshal(raw, &snap.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}
