// Package csrf implements the dashboard's double-submit protection.
// Every browser gets a random token cookie; state-changing form posts
// must echo it back in the _csrf field (or the X-CSRF-Token header for
// the JSON probes).
package csrf

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/example/cartdash/internal/config"
)

type contextKey struct{}

const cookieName = "cartdash_csrf"

// Middleware issues the token cookie on first contact and rejects any
// mutating request that does not echo it.
func Middleware(cfg *config.Config) func(http.Handler) http.Handler {
	// Cookies are only marked Secure when the app is actually served
	// over https; local development runs plain http.
	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				var err error
				token, err = newToken()
				if err != nil {
					http.Error(w, "failed to issue csrf token", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if mutates(r.Method) {
				echoed := r.Header.Get("X-CSRF-Token")
				if echoed == "" {
					echoed = r.FormValue("_csrf")
				}
				if echoed == "" || echoed != token {
					http.Error(w, "invalid csrf token", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, token)))
		})
	}
}

// TokenFromContext returns the token the templates embed in their forms.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKey{}).(string); ok {
		return v
	}
	return ""
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func mutates(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
