package store

import (
	"time"

	"github.com/google/uuid"
)

// Session is one browser session's persisted identity: the backend
// credential pair plus the role claims captured at login. Roles is kept
// as raw JSON; the session manager owns decoding it and treats
// undecodable data as a corrupt entry to discard.
type Session struct {
	ID           string
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	TokenExpiry  *time.Time
	Roles        []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastSeenAt   time.Time
}
