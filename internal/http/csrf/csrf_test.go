package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/example/cartdash/internal/config"
)

func protected() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareIssuesCookieAndPassesReads(t *testing.T) {
	h := Middleware(&config.Config{BaseURL: "http://localhost:8080"})(protected())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := rec.Result()
	var token string
	for _, c := range res.Cookies() {
		if c.Name == "cartdash_csrf" {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatal("no csrf cookie issued on first contact")
	}
}

func TestMiddlewareRejectsPostWithoutToken(t *testing.T) {
	h := Middleware(&config.Config{BaseURL: "http://localhost:8080"})(protected())

	// Prime the cookie.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	cookies := rec.Result().Cookies()

	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(""))
	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 without an echoed token", rec.Code)
	}
}

func TestMiddlewareAcceptsEchoedFormToken(t *testing.T) {
	h := Middleware(&config.Config{BaseURL: "http://localhost:8080"})(protected())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	cookies := rec.Result().Cookies()

	var token string
	for _, c := range cookies {
		if c.Name == "cartdash_csrf" {
			token = c.Value
		}
	}

	form := url.Values{"_csrf": {token}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a matching token", rec.Code)
	}
}
