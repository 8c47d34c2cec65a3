// Package auth gates page access on the restored session identity.
package auth

import (
	"net/http"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/http/errors"
	"github.com/example/cartdash/internal/session"
)

// loginPath is where unauthenticated requests land; landingPath is where
// authenticated but under-privileged requests land instead.
const (
	loginPath   = "/login"
	landingPath = "/user"
)

// Guard wires the session manager into the router as middleware.
type Guard struct {
	sessions *session.Manager
}

func NewGuard(sessions *session.Manager) *Guard {
	return &Guard{sessions: sessions}
}

// RequireSession restores the identity for the request and redirects to
// the login page when none exists. On success the identity and its
// bearer token travel on the request context.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.sessions.Restore(r.Context(), w, r)
		if err != nil {
			errors.LogError(r, "session restore failed", err)
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}
		if !id.Authenticated() {
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}

		ctx := WithIdentity(r.Context(), id)
		ctx = api.WithBearer(ctx, id.Token.AccessToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route on one role claim. An authenticated identity
// lacking both the claim and admin is sent to the landing page, not to
// login: the user is signed in, just under-privileged. Must run inside
// RequireSession.
func (g *Guard) RequireRole(role api.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			if !id.Roles.Allows(role) {
				http.Redirect(w, r, landingPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
