package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/cartdash/internal/api"
	httperrors "github.com/example/cartdash/internal/http/errors"
)

// LoginForm displays the login page. An already authenticated visitor is
// sent straight to the dashboard.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if id, err := h.sessions.Restore(r.Context(), w, r); err == nil && id.Authenticated() {
		http.Redirect(w, r, "/user", http.StatusFound)
		return
	}

	data := h.withFlash(r, map[string]any{
		"Title": "Iniciar sesión",
	})
	h.render(w, r, "login.html", data)
}

// Login exchanges the submitted credentials for a session. A rejected
// credential re-renders the form with an inline error; backend outages
// get their own message so the user knows it is not their password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	identifier := strings.TrimSpace(r.FormValue("identifier"))
	password := r.FormValue("password")
	if identifier == "" || password == "" {
		h.renderLoginError(w, r, identifier, "Introduce usuario y contraseña")
		return
	}

	_, err := h.sessions.Login(r.Context(), w, identifier, password)
	if err != nil {
		var authErr *api.AuthError
		var netErr *api.NetworkError
		switch {
		case errors.As(err, &authErr):
			h.renderLoginError(w, r, identifier, "Usuario o contraseña incorrectos")
		case errors.As(err, &netErr):
			h.renderLoginError(w, r, identifier, "No se pudo conectar con el servidor. Inténtalo de nuevo.")
		default:
			httperrors.InternalError(w, r, err, "login failed")
		}
		return
	}

	http.Redirect(w, r, "/user", http.StatusFound)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, identifier, message string) {
	data := h.withFlash(r, map[string]any{
		"Title":      "Iniciar sesión",
		"Identifier": identifier,
		"FormError":  message,
	})
	h.render(w, r, "login.html", data)
}

// Logout clears the session and returns to the login page. Backend
// revocation is best effort inside the manager; logout never fails.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// RegisterForm validates the invite token and shows the registration
// page, or a dedicated screen when the invite is expired or unknown.
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	validation, err := h.api.Registration.ValidateInvite(r.Context(), token)
	if err != nil {
		var notFound *api.NotFoundError
		if errors.As(err, &notFound) {
			h.renderInvalidInvite(w, r, "La invitación no existe")
			return
		}
		httperrors.InternalError(w, r, err, "invite validation failed")
		return
	}
	if !validation.Valid {
		reason := "La invitación ya no es válida"
		if validation.Error != nil && *validation.Error != "" {
			reason = *validation.Error
		}
		h.renderInvalidInvite(w, r, reason)
		return
	}

	data := h.withFlash(r, map[string]any{
		"Title":     "Completar registro",
		"Token":     token,
		"Firstname": inviteName(validation),
		"ExpiresAt": validation.ExpiresAt,
	})
	h.render(w, r, "register.html", data)
}

// Register completes the registration with the chosen password.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	if len(password) < 8 {
		h.renderRegisterError(w, r, token, "La contraseña debe tener al menos 8 caracteres")
		return
	}
	if password != confirm {
		h.renderRegisterError(w, r, token, "Las contraseñas no coinciden")
		return
	}

	if err := h.api.Registration.CompleteRegistration(r.Context(), token, password); err != nil {
		var valErr *api.ValidationError
		var notFound *api.NotFoundError
		switch {
		case errors.As(err, &valErr):
			h.renderRegisterError(w, r, token, valErr.Detail)
		case errors.As(err, &notFound):
			h.renderInvalidInvite(w, r, "La invitación ya no es válida")
		default:
			httperrors.InternalError(w, r, err, "registration failed")
		}
		return
	}

	h.redirect(w, r, "/login", map[string]string{"status": "registered"})
}

func (h *Handler) renderRegisterError(w http.ResponseWriter, r *http.Request, token, message string) {
	validation, err := h.api.Registration.ValidateInvite(r.Context(), token)
	if err != nil || !validation.Valid {
		h.renderInvalidInvite(w, r, "La invitación ya no es válida")
		return
	}
	data := h.withFlash(r, map[string]any{
		"Title":     "Completar registro",
		"Token":     token,
		"Firstname": inviteName(validation),
		"ExpiresAt": validation.ExpiresAt,
		"FormError": message,
	})
	h.render(w, r, "register.html", data)
}

func inviteName(v *api.InviteValidation) string {
	if v.UserFirstname != nil {
		return *v.UserFirstname
	}
	return ""
}

func (h *Handler) renderInvalidInvite(w http.ResponseWriter, r *http.Request, reason string) {
	data := h.withFlash(r, map[string]any{
		"Title":  "Invitación no válida",
		"Reason": reason,
	})
	h.render(w, r, "register_invalid.html", data)
}
