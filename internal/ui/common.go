package ui

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/auth"
	"github.com/example/cartdash/internal/http/csrf"
	"github.com/example/cartdash/internal/http/errors"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// withFlash adds flash messages and CSRF token to template data.
func (h *Handler) withFlash(r *http.Request, data map[string]any) map[string]any {
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		data["FlashMessage"] = status
	}
	if err := q.Get("error"); err != "" {
		data["FlashError"] = err
	}
	if invite := q.Get("invite"); invite != "" {
		data["InviteLink"] = invite
	}
	if csrfToken := csrf.TokenFromContext(r.Context()); csrfToken != "" {
		data["CSRFToken"] = csrfToken
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		if _, have := data["Identity"]; !have {
			data["Identity"] = id
		}
		data["IsAdmin"] = id.Roles.Has(api.RoleAdmin)
		data["IsPlanner"] = id.Roles.Allows(api.RoleFieldServicePlanner)
	}
	return data
}

// redirect redirects to a path with query parameters.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string, params map[string]string) {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	location := path
	if encoded := q.Encode(); encoded != "" {
		location += "?" + encoded
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// render executes a template and writes the response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := h.templates[name]
	if !ok {
		errors.InternalError(w, r, fmt.Errorf("template not found"), fmt.Sprintf("template %q not found", name))
		return
	}

	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		errors.InternalError(w, r, err, fmt.Sprintf("template render error for %q", name))
	}
}

// failRedirect maps a backend error to a flash message on the given
// page. Auth errors are not mapped here: an expired session already got
// handled by the guard before the handler ran.
func (h *Handler) failRedirect(w http.ResponseWriter, r *http.Request, path string, err error) {
	var valErr *api.ValidationError
	var notFound *api.NotFoundError
	var netErr *api.NetworkError
	switch {
	case goerrors.As(err, &valErr):
		h.redirect(w, r, path, map[string]string{"error": valErr.Detail})
	case goerrors.As(err, &notFound):
		h.redirect(w, r, path, map[string]string{"error": "El elemento ya no existe"})
	case goerrors.As(err, &netErr):
		h.redirect(w, r, path, map[string]string{"error": "No se pudo conectar con el servidor"})
	default:
		errors.InternalError(w, r, err, "backend request failed")
	}
}

// idParam parses the {id} URL parameter as a UUID.
func idParam(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}

// parseDateTimeLocal parses the value of an <input type="datetime-local">.
func parseDateTimeLocal(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", value)
}
