package snapshot

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStore creates a postgres-backed store when a pool is provided,
// otherwise in-memory. The pool is shared across stores and owned by the
// caller.
func NewStore[S any](ctx context.Context, pool *pgxpool.Pool, kind string) (Store[S], error) {
	if pool == nil {
		return NewInMemoryStore[S](), nil
	}
	return NewPostgresStore[S](ctx, pool, kind)
}
