// Package session holds the dashboard's identity state: the backend
// credential pair and role claims captured at login, persisted per
// browser session and restored on every request.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/config"
	"github.com/example/cartdash/internal/store"
)

const sessionTTL = 7 * 24 * time.Hour

// Identity is the in-memory view of one authenticated browser session.
type Identity struct {
	SessionID string
	UserID    uuid.UUID
	Token     oauth2.Token
	Roles     api.RoleSet
}

// Authenticated reports whether a credential is present. There is no
// half-authenticated state: identity exists iff the access token does.
func (id *Identity) Authenticated() bool {
	return id != nil && id.Token.AccessToken != ""
}

// Manager is the single writer of session state. Login, Logout and
// Restore are the only operations that mutate it.
type Manager struct {
	cookieName string
	codec      *securecookie.SecureCookie
	secure     bool
	sessions   store.SessionRepository
	auth       api.AuthService
}

func NewManager(cfg *config.Config, sessions store.SessionRepository, auth api.AuthService) *Manager {
	hash := sha256.Sum256([]byte(cfg.Session.Secret))
	sc := securecookie.New(hash[:], hash[:])
	sc.MaxAge(int(sessionTTL / time.Second))
	sc.SetSerializer(securecookie.JSONEncoder{})

	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}

	return &Manager{
		cookieName: "cartdash_session",
		codec:      sc,
		secure:     secure,
		sessions:   sessions,
		auth:       auth,
	}
}

// Login exchanges credentials with the backend, decodes the returned
// access token's subject claim and persists the new session. A rejected
// credential surfaces as *api.AuthError.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, identifier, password string) (*Identity, error) {
	creds, err := m.auth.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	roles, err := api.ParseRoleSet(creds.Roles)
	if err != nil {
		return nil, fmt.Errorf("backend returned unusable role claims: %w", err)
	}
	userID, expiry, err := decodeSubject(creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("backend returned unusable credential: %w", err)
	}

	rolesJSON, err := json.Marshal(roles.Strings())
	if err != nil {
		return nil, err
	}

	id := &Identity{
		SessionID: uuid.NewString(),
		UserID:    userID,
		Token: oauth2.Token{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			TokenType:    creds.TokenType,
		},
		Roles: roles,
	}
	if expiry != nil {
		id.Token.Expiry = *expiry
	}

	if err := m.sessions.Create(ctx, store.Session{
		ID:           id.SessionID,
		UserID:       id.UserID,
		AccessToken:  id.Token.AccessToken,
		RefreshToken: id.Token.RefreshToken,
		TokenExpiry:  expiry,
		Roles:        rolesJSON,
		ExpiresAt:    time.Now().Add(sessionTTL),
	}); err != nil {
		return nil, err
	}

	if err := m.setCookie(w, id.SessionID); err != nil {
		return nil, err
	}
	return id, nil
}

// Logout revokes the backend session best-effort and always clears the
// local one; a failing backend never blocks logging out.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := m.sessionIDFromCookie(r); ok {
		if row, err := m.sessions.GetByID(ctx, sessionID); err == nil && row.RefreshToken != "" {
			_ = m.auth.Logout(ctx, row.RefreshToken)
		}
		_ = m.sessions.Delete(ctx, sessionID)
	}
	m.clearCookie(w)
}

// Restore recovers the identity for a request from the session cookie.
// Missing or malformed persisted state yields (nil, nil): the corrupt
// entry is removed and the user is simply unauthenticated. An expired
// access token is refreshed transparently; a refresh the backend rejects
// also clears the session. Only transport failures propagate as errors.
func (m *Manager) Restore(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Identity, error) {
	sessionID, ok := m.sessionIDFromCookie(r)
	if !ok {
		return nil, nil
	}

	row, err := m.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		m.clearCookie(w)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	roles, ok := m.decodeRoles(ctx, w, row)
	if !ok {
		return nil, nil
	}
	userID, _, err := decodeSubject(row.AccessToken)
	if err != nil {
		m.discard(ctx, w, row.ID)
		return nil, nil
	}

	id := &Identity{
		SessionID: row.ID,
		UserID:    userID,
		Token: oauth2.Token{
			AccessToken:  row.AccessToken,
			RefreshToken: row.RefreshToken,
			TokenType:    "bearer",
		},
		Roles: roles,
	}
	if row.TokenExpiry != nil {
		id.Token.Expiry = *row.TokenExpiry
	}

	if !id.Token.Valid() {
		if err := m.refresh(ctx, w, id); err != nil {
			return nil, err
		}
		if id == nil || !id.Authenticated() {
			return nil, nil
		}
	}

	_ = m.sessions.TouchLastSeen(ctx, row.ID)
	return id, nil
}

// refresh exchanges the stored refresh token for a new access token and
// updates the session row in place. A backend rejection discards the
// session; id is zeroed so the caller sees an unauthenticated request.
func (m *Manager) refresh(ctx context.Context, w http.ResponseWriter, id *Identity) error {
	creds, err := m.auth.Refresh(ctx, id.Token.RefreshToken)
	if err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			m.discard(ctx, w, id.SessionID)
			*id = Identity{}
			return nil
		}
		return err
	}

	userID, expiry, err := decodeSubject(creds.AccessToken)
	if err != nil {
		m.discard(ctx, w, id.SessionID)
		*id = Identity{}
		return nil
	}

	id.UserID = userID
	id.Token.AccessToken = creds.AccessToken
	if creds.RefreshToken != "" {
		id.Token.RefreshToken = creds.RefreshToken
	}
	if expiry != nil {
		id.Token.Expiry = *expiry
	} else {
		id.Token.Expiry = time.Time{}
	}

	return m.sessions.UpdateTokens(ctx, id.SessionID, id.Token.AccessToken, id.Token.RefreshToken, expiry)
}

// decodeRoles parses the persisted claim set. Anything undecodable is a
// corrupt entry: it is deleted and the caller treats the request as
// unauthenticated rather than failing.
func (m *Manager) decodeRoles(ctx context.Context, w http.ResponseWriter, row *store.Session) (api.RoleSet, bool) {
	var raw []string
	if err := json.Unmarshal(row.Roles, &raw); err != nil {
		m.discard(ctx, w, row.ID)
		return nil, false
	}
	roles, err := api.ParseRoleSet(raw)
	if err != nil {
		m.discard(ctx, w, row.ID)
		return nil, false
	}
	return roles, true
}

func (m *Manager) discard(ctx context.Context, w http.ResponseWriter, sessionID string) {
	_ = m.sessions.Delete(ctx, sessionID)
	m.clearCookie(w)
}

func (m *Manager) setCookie(w http.ResponseWriter, sessionID string) error {
	encoded, err := m.codec.Encode(m.cookieName, sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sessionIDFromCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	var sessionID string
	if err := m.codec.Decode(m.cookieName, c.Value, &sessionID); err != nil {
		return "", false
	}
	return sessionID, sessionID != ""
}

// decodeSubject extracts the subject id and expiry from the backend's
// JWT without verifying the signature; verification is the backend's
// job, the dashboard only needs the embedded claims.
func decodeSubject(accessToken string) (uuid.UUID, *time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return uuid.Nil, nil, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, nil, fmt.Errorf("credential has no subject claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("credential subject is not an id: %w", err)
	}

	var expiry *time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		expiry = &t
	}
	return userID, expiry, nil
}
