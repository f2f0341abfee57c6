package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"alterview/internal/domain"
)

// PostgresStore persists sources in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profile_sources (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			label TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_profile_sources_profile
			ON profile_sources (profile_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("init source schema failed on %q: %w", stmt, err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, profileID string, kind Kind, label, url string) (Source, error) {
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
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profile_sources (id, profile_id, kind, label, url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		src.ID, src.ProfileID, src.Kind, src.Label, src.URL, src.CreatedAt,
	)
	if err != nil {
		return Source{}, fmt.Errorf("insert source: %w", err)
	}
	return src, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Source, error) {
	var src Source
	err := s.pool.QueryRow(ctx,
		`SELECT id, profile_id, kind, label, url, created_at, deleted_at
		 FROM profile_sources WHERE id=$1 AND deleted_at IS NULL`, id,
	).Scan(&src.ID, &src.ProfileID, &src.Kind, &src.Label, &src.URL, &src.CreatedAt, &src.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Source{}, domain.ErrNotFound
	}
	if err != nil {
		return Source{}, fmt.Errorf("get source: %w", err)
	}
	return src, nil
}

func (s *PostgresStore) ListByProfile(ctx context.Context, profileID string) ([]Source, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, kind, label, url, created_at, deleted_at
		 FROM profile_sources WHERE profile_id=$1 AND deleted_at IS NULL
		 ORDER BY created_at ASC`, profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.ProfileID, &src.Kind, &src.Label, &src.URL, &src.CreatedAt, &src.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profile_sources SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("soft delete source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NewStore creates a postgres-backed source store when a pool is provided,
// otherwise in-memory.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	if pool == nil {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, pool)
}
