package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store aggregates the dashboard's own persistence, which is limited to
// browser sessions. Domain data lives behind the backend REST API and is
// never cached here.
type Store struct {
	pool *pgxpool.Pool

	Sessions SessionRepository
}

// New wires concrete repository implementations with a shared pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		Sessions: &sessionRepo{pool: pool},
	}
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.pool.Ping(ctx)
}
