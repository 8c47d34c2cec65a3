package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/config"
	"github.com/example/cartdash/internal/store"
)

type fakeSessions struct {
	rows map[string]*store.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: make(map[string]*store.Session)}
}

func (f *fakeSessions) Create(ctx context.Context, s store.Session) error {
	copied := s
	f.rows[s.ID] = &copied
	return nil
}

func (f *fakeSessions) GetByID(ctx context.Context, id string) (*store.Session, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessions) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry *time.Time) error {
	if s, ok := f.rows[id]; ok {
		s.AccessToken = accessToken
		s.RefreshToken = refreshToken
		s.TokenExpiry = expiry
	}
	return nil
}

func (f *fakeSessions) TouchLastSeen(ctx context.Context, id string) error { return nil }

func (f *fakeSessions) Delete(ctx context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeAuth struct {
	loginCreds   *Credentials
	loginErr     error
	refreshCreds *Credentials
	refreshErr   error
	refreshCalls int
	logoutCalls  int
	logoutErr    error
	logoutTokens []string
}

// Credentials aliases the api type to keep the fake literals short.
type Credentials = api.Credentials

func (f *fakeAuth) Login(ctx context.Context, identifier, password string) (*Credentials, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginCreds, nil
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshCreds, nil
}

func (f *fakeAuth) Logout(ctx context.Context, refreshToken string) error {
	f.logoutCalls++
	f.logoutTokens = append(f.logoutTokens, refreshToken)
	return f.logoutErr
}

func testConfig() *config.Config {
	cfg := &config.Config{
		BaseURL: "http://localhost:8080",
	}
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func mintToken(t *testing.T, sub uuid.UUID, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub.String()}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unverified"))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func cookieRequest(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/user", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestLoginThenRestore(t *testing.T) {
	userID := uuid.New()
	sessions := newFakeSessions()
	auth := &fakeAuth{loginCreds: &Credentials{
		AccessToken:  mintToken(t, userID, time.Now().Add(time.Hour)),
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
		Roles:        []string{"publisher", "admin"},
	}}
	m := NewManager(testConfig(), sessions, auth)

	rec := httptest.NewRecorder()
	id, err := m.Login(context.Background(), rec, "maria", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id.UserID != userID {
		t.Errorf("login user = %s, want %s", id.UserID, userID)
	}
	if !id.Roles.Has(api.RoleAdmin) {
		t.Error("login identity missing admin role")
	}
	if len(sessions.rows) != 1 {
		t.Fatalf("sessions persisted = %d, want 1", len(sessions.rows))
	}

	restored, err := m.Restore(context.Background(), httptest.NewRecorder(), cookieRequest(rec))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Authenticated() {
		t.Fatal("restored identity not authenticated")
	}
	if restored.UserID != userID {
		t.Errorf("restored user = %s, want %s", restored.UserID, userID)
	}
	if restored.SessionID != id.SessionID {
		t.Errorf("restored session = %s, want %s", restored.SessionID, id.SessionID)
	}
	if restored.Token.AccessToken != auth.loginCreds.AccessToken {
		t.Error("restored identity has a different access token")
	}
	if auth.refreshCalls != 0 {
		t.Errorf("refresh calls = %d, want 0 for a fresh token", auth.refreshCalls)
	}
}

func TestLoginRejectsUnknownRoles(t *testing.T) {
	auth := &fakeAuth{loginCreds: &Credentials{
		AccessToken: mintToken(t, uuid.New(), time.Now().Add(time.Hour)),
		Roles:       []string{"publisher", "mystery"},
	}}
	m := NewManager(testConfig(), newFakeSessions(), auth)

	if _, err := m.Login(context.Background(), httptest.NewRecorder(), "maria", "secret"); err == nil {
		t.Fatal("login accepted an unknown role claim")
	}
}

func TestLoginPropagatesAuthError(t *testing.T) {
	auth := &fakeAuth{loginErr: &api.AuthError{Detail: "bad credentials"}}
	m := NewManager(testConfig(), newFakeSessions(), auth)

	_, err := m.Login(context.Background(), httptest.NewRecorder(), "maria", "wrong")
	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("login error = %v, want *api.AuthError", err)
	}
}

func TestRestoreWithoutCookie(t *testing.T) {
	m := NewManager(testConfig(), newFakeSessions(), &fakeAuth{})

	id, err := m.Restore(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/user", nil))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if id.Authenticated() {
		t.Error("identity authenticated without a cookie")
	}
}

func TestRestoreDiscardsCorruptRoles(t *testing.T) {
	userID := uuid.New()
	sessions := newFakeSessions()
	auth := &fakeAuth{loginCreds: &Credentials{
		AccessToken:  mintToken(t, userID, time.Now().Add(time.Hour)),
		RefreshToken: "refresh-1",
		Roles:        []string{"publisher"},
	}}
	m := NewManager(testConfig(), sessions, auth)

	rec := httptest.NewRecorder()
	id, err := m.Login(context.Background(), rec, "maria", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Corrupt the persisted claims the way a bad deploy or manual edit
	// would.
	sessions.rows[id.SessionID].Roles = []byte(`{"not": "a list"}`)

	restored, err := m.Restore(context.Background(), httptest.NewRecorder(), cookieRequest(rec))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Authenticated() {
		t.Error("corrupt session still authenticated")
	}
	if _, ok := sessions.rows[id.SessionID]; ok {
		t.Error("corrupt session row not deleted")
	}
}

func TestRestoreRefreshesExpiredToken(t *testing.T) {
	userID := uuid.New()
	sessions := newFakeSessions()
	auth := &fakeAuth{
		loginCreds: &Credentials{
			AccessToken:  mintToken(t, userID, time.Now().Add(-time.Minute)),
			RefreshToken: "refresh-1",
			Roles:        []string{"publisher"},
		},
		refreshCreds: &Credentials{
			AccessToken:  mintToken(t, userID, time.Now().Add(time.Hour)),
			RefreshToken: "refresh-2",
		},
	}
	m := NewManager(testConfig(), sessions, auth)

	rec := httptest.NewRecorder()
	id, err := m.Login(context.Background(), rec, "maria", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	restored, err := m.Restore(context.Background(), httptest.NewRecorder(), cookieRequest(rec))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Authenticated() {
		t.Fatal("refreshed identity not authenticated")
	}
	if auth.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", auth.refreshCalls)
	}
	if restored.Token.AccessToken != auth.refreshCreds.AccessToken {
		t.Error("identity still carries the expired access token")
	}

	row := sessions.rows[id.SessionID]
	if row.AccessToken != auth.refreshCreds.AccessToken {
		t.Error("refreshed access token not persisted")
	}
	if row.RefreshToken != "refresh-2" {
		t.Errorf("persisted refresh token = %q, want rotated refresh-2", row.RefreshToken)
	}
}

func TestRestoreDiscardsOnRejectedRefresh(t *testing.T) {
	userID := uuid.New()
	sessions := newFakeSessions()
	auth := &fakeAuth{
		loginCreds: &Credentials{
			AccessToken:  mintToken(t, userID, time.Now().Add(-time.Minute)),
			RefreshToken: "refresh-1",
			Roles:        []string{"publisher"},
		},
		refreshErr: &api.AuthError{Detail: "refresh revoked"},
	}
	m := NewManager(testConfig(), sessions, auth)

	rec := httptest.NewRecorder()
	id, err := m.Login(context.Background(), rec, "maria", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	restored, err := m.Restore(context.Background(), httptest.NewRecorder(), cookieRequest(rec))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Authenticated() {
		t.Error("identity survived a rejected refresh")
	}
	if _, ok := sessions.rows[id.SessionID]; ok {
		t.Error("session row survived a rejected refresh")
	}
}

func TestRestorePropagatesTransportErrors(t *testing.T) {
	userID := uuid.New()
	sessions := newFakeSessions()
	auth := &fakeAuth{
		loginCreds: &Credentials{
			AccessToken:  mintToken(t, userID, time.Now().Add(-time.Minute)),
			RefreshToken: "refresh-1",
			Roles:        []string{"publisher"},
		},
		refreshErr: &api.NetworkError{Err: errors.New("connection refused")},
	}
	m := NewManager(testConfig(), sessions, auth)

	rec := httptest.NewRecorder()
	id, err := m.Login(context.Background(), rec, "maria", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := m.Restore(context.Background(), httptest.NewRecorder(), cookieRequest(rec)); err == nil {
		t.Fatal("transport failure during refresh did not surface")
	}
	if _, ok := sessions.rows[id.SessionID]; !ok {
		t.Error("session discarded on a transient transport failure")
	}
}

func TestLogoutAlwaysClearsLocally(t *testing.T) {
	userID := uuid.New()
	sessions := newFakeSessions()
	auth := &fakeAuth{
		loginCreds: &Credentials{
			AccessToken:  mintToken(t, userID, time.Now().Add(time.Hour)),
			RefreshToken: "refresh-1",
			Roles:        []string{"publisher"},
		},
		logoutErr: errors.New("backend down"),
	}
	m := NewManager(testConfig(), sessions, auth)

	rec := httptest.NewRecorder()
	id, err := m.Login(context.Background(), rec, "maria", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	m.Logout(context.Background(), httptest.NewRecorder(), cookieRequest(rec))

	if auth.logoutCalls != 1 {
		t.Errorf("backend logout calls = %d, want 1", auth.logoutCalls)
	}
	if len(auth.logoutTokens) == 1 && auth.logoutTokens[0] != "refresh-1" {
		t.Errorf("revoked token = %q, want refresh-1", auth.logoutTokens[0])
	}
	if _, ok := sessions.rows[id.SessionID]; ok {
		t.Error("local session survived logout despite backend failure")
	}
}
