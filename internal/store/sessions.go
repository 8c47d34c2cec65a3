package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository persists browser sessions.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry *time.Time) error
	TouchLastSeen(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	pool *pgxpool.Pool
}

func (r *sessionRepo) Create(ctx context.Context, s Session) error {
	defer observeDB(ctx, "sessions.create")()
	const q = `INSERT INTO sessions (id, user_id, access_token, refresh_token, token_expiry, roles, created_at, expires_at, last_seen_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7, NOW())`
	_, err := r.pool.Exec(ctx, q, s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.TokenExpiry, s.Roles, s.ExpiresAt)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*Session, error) {
	defer observeDB(ctx, "sessions.get")()
	const q = `SELECT id, user_id, access_token, refresh_token, token_expiry, roles, created_at, expires_at, last_seen_at
FROM sessions WHERE id = $1 AND expires_at > NOW()`
	var s Session
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.UserID, &s.AccessToken, &s.RefreshToken, &s.TokenExpiry,
		&s.Roles, &s.CreatedAt, &s.ExpiresAt, &s.LastSeenAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry *time.Time) error {
	defer observeDB(ctx, "sessions.update_tokens")()
	const q = `UPDATE sessions SET access_token = $2, refresh_token = $3, token_expiry = $4 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, accessToken, refreshToken, expiry)
	return err
}

func (r *sessionRepo) TouchLastSeen(ctx context.Context, id string) error {
	defer observeDB(ctx, "sessions.touch")()
	const q = `UPDATE sessions SET last_seen_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "sessions.delete")()
	const q = `DELETE FROM sessions WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer observeDB(ctx, "sessions.delete_expired")()
	const q = `DELETE FROM sessions WHERE expires_at <= $1`
	tag, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
