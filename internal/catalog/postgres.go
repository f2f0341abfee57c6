package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"alterview/internal/domain"
)

// PostgresStore persists the keyword catalog in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS keywords (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_keywords_kind_name ON keywords (kind, name);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("init keyword schema failed on %q: %w", stmt, err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, kind Kind, name string) (Keyword, error) {
	if err := validate(kind, name); err != nil {
		return Keyword{}, err
	}

	kw := Keyword{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO keywords (id, kind, name, created_at) VALUES ($1, $2, $3, $4)`,
		kw.ID, kw.Kind, kw.Name, kw.CreatedAt,
	)
	if err != nil {
		return Keyword{}, fmt.Errorf("insert keyword: %w", err)
	}
	return kw, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Keyword, error) {
	var kw Keyword
	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, name, created_at FROM keywords WHERE id=$1`, id,
	).Scan(&kw.ID, &kw.Kind, &kw.Name, &kw.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Keyword{}, domain.ErrNotFound
	}
	if err != nil {
		return Keyword{}, fmt.Errorf("get keyword: %w", err)
	}
	return kw, nil
}

func (s *PostgresStore) Resolve(ctx context.Context, ids []string) ([]Keyword, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, name, created_at FROM keywords WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve keywords: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]Keyword, len(ids))
	for rows.Next() {
		var kw Keyword
		if err := rows.Scan(&kw.ID, &kw.Kind, &kw.Name, &kw.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan keyword row: %w", err)
		}
		byID[kw.ID] = kw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword rows: %w", err)
	}

	// Input order drives prompt rendering order; keep it.
	out := make([]Keyword, 0, len(ids))
	for _, id := range ids {
		if kw, ok := byID[id]; ok {
			out = append(out, kw)
		}
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, kind Kind) ([]Keyword, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, name, created_at FROM keywords WHERE kind=$1 ORDER BY name ASC`, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var out []Keyword
	for rows.Next() {
		var kw Keyword
		if err := rows.Scan(&kw.ID, &kw.Kind, &kw.Name, &kw.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan keyword row: %w", err)
		}
		out = append(out, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword rows: %w", err)
	}
	return out, nil
}

// NewStore creates a postgres-backed catalog when a pool is provided,
// otherwise in-memory.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	if pool == nil {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, pool)
}
