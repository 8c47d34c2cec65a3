package ui

import (
	"encoding/json"
	goerrors "errors"
	"net/http"
	"sort"
	"strings"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/auth"
	"github.com/example/cartdash/internal/http/errors"
	"github.com/example/cartdash/internal/usernames"
)

// protectedUsername can never be deactivated, deleted or stripped of
// roles from the dashboard. It is the account admins fall back on when
// they lock themselves out.
const protectedUsername = "congregation-admin"

// AdminUsers lists every user with management actions.
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.api.Users.List(r.Context())
	if err != nil {
		// Degrade to the empty state: the page stays usable while the
		// backend is down.
		errors.LogError(r, "failed to load users", err)
		users = nil
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].FullName()) < strings.ToLower(users[j].FullName())
	})

	var view []map[string]any
	for _, u := range users {
		view = append(view, map[string]any{
			"User":      u,
			"Protected": u.Username == protectedUsername,
		})
	}

	data := h.withFlash(r, map[string]any{
		"Title":    "Gestión de usuarios",
		"Users":    view,
		"AllRoles": []api.Role{api.RolePublisher, api.RoleCartPlanner, api.RoleFieldServicePlanner, api.RoleAdmin},
	})
	h.render(w, r, "admin_users.html", data)
}

// CreateUser creates a user and shows the invite link the admin passes
// on. An omitted username is derived from the full name.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	firstname := strings.TrimSpace(r.FormValue("firstname"))
	lastname := strings.TrimSpace(r.FormValue("lastname"))
	if firstname == "" || lastname == "" {
		h.redirect(w, r, "/admin/users", map[string]string{"error": "Nombre y apellido son obligatorios"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		username = usernames.Slugify(firstname + " " + lastname)
	}

	roles, err := api.ParseRoleSet(r.Form["roles"])
	if err != nil {
		h.redirect(w, r, "/admin/users", map[string]string{"error": "Rol desconocido"})
		return
	}
	if len(roles) == 0 {
		roles = api.RoleSet{api.RolePublisher}
	}

	create := api.UserCreate{
		Firstname: firstname,
		Lastname:  lastname,
		Username:  username,
		Roles:     roles.Strings(),
	}
	if email := strings.TrimSpace(r.FormValue("email")); email != "" {
		create.Email = &email
	}

	created, err := h.api.Users.Create(r.Context(), create)
	if err != nil {
		h.failRedirect(w, r, "/admin/users", err)
		return
	}

	h.redirect(w, r, "/admin/users", map[string]string{
		"status": "created",
		"invite": h.absoluteInviteURL(created.InviteURL),
	})
}

// UpdateUserRoles replaces a user's role claims.
func (h *Handler) UpdateUserRoles(w http.ResponseWriter, r *http.Request) {
	target, ok := h.lookupTarget(w, r)
	if !ok {
		return
	}
	if target.Username == protectedUsername {
		h.redirect(w, r, "/admin/users", map[string]string{"error": "Esta cuenta no se puede modificar"})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	roles, err := api.ParseRoleSet(r.Form["roles"])
	if err != nil || len(roles) == 0 {
		h.redirect(w, r, "/admin/users", map[string]string{"error": "Selecciona al menos un rol válido"})
		return
	}

	if _, err := h.api.Users.UpdateRoles(r.Context(), target.ID, roles); err != nil {
		h.failRedirect(w, r, "/admin/users", err)
		return
	}
	h.redirect(w, r, "/admin/users", map[string]string{"status": "roles_updated"})
}

// ToggleUser flips a user between active and inactive. Admins cannot
// deactivate themselves or the protected account.
func (h *Handler) ToggleUser(w http.ResponseWriter, r *http.Request) {
	target, ok := h.lookupTarget(w, r)
	if !ok {
		return
	}
	if target.Username == protectedUsername {
		h.redirect(w, r, "/admin/users", map[string]string{"error": "Esta cuenta no se puede desactivar"})
		return
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok && id.UserID == target.ID {
		h.redirect(w, r, "/admin/users", map[string]string{"error": "No puedes desactivar tu propia cuenta"})
		return
	}

	user, err := h.api.Users.Toggle(r.Context(), target.ID)
	if err != nil {
		h.failRedirect(w, r, "/admin/users", err)
		return
	}

	status := "deactivated"
	if user.Active {
		status = "activated"
	}
	h.redirect(w, r, "/admin/users", map[string]string{"status": status})
}

// DeleteUser removes a user.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	target, ok := h.lookupTarget(w, r)
	if !ok {
		return
	}
	if target.Username == protectedUsername {
		h.redirect(w, r, "/admin/users", map[string]string{"error": "Esta cuenta no se puede eliminar"})
		return
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok && id.UserID == target.ID {
		h.redirect(w, r, "/admin/users", map[string]string{"error": "No puedes eliminar tu propia cuenta"})
		return
	}

	if err := h.api.Users.Delete(r.Context(), target.ID); err != nil {
		h.failRedirect(w, r, "/admin/users", err)
		return
	}
	h.redirect(w, r, "/admin/users", map[string]string{"status": "deleted"})
}

// InviteUser fetches a fresh invite link for a user who has not
// registered yet.
func (h *Handler) InviteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	inviteURL, err := h.api.Users.Invite(r.Context(), id)
	if err != nil {
		h.failRedirect(w, r, "/admin/users", err)
		return
	}
	h.redirect(w, r, "/admin/users", map[string]string{
		"status": "invited",
		"invite": h.absoluteInviteURL(inviteURL),
	})
}

// ResetUserPassword invalidates the user's password and returns a new
// invite link for setting the next one.
func (h *Handler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	inviteURL, err := h.api.Users.ResetPassword(r.Context(), id)
	if err != nil {
		h.failRedirect(w, r, "/admin/users", err)
		return
	}
	h.redirect(w, r, "/admin/users", map[string]string{
		"status": "password_reset",
		"invite": h.absoluteInviteURL(inviteURL),
	})
}

// CheckUsername answers the availability probe the user form fires while
// the admin types. Stale probes superseded by a newer keystroke return
// 204 so the page simply keeps its current state.
func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	candidate := r.URL.Query().Get("username")

	result, err := h.usernames.Lookup(r.Context(), id.SessionID, candidate)
	if err != nil {
		if goerrors.Is(err, usernames.ErrSuperseded) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		errors.LogError(r, "username check failed", err)
		http.Error(w, "check failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// lookupTarget resolves the {id} route parameter against the user list;
// the protected-account rule needs the username, which the id alone
// does not give us.
func (h *Handler) lookupTarget(w http.ResponseWriter, r *http.Request) (*api.User, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return nil, false
	}

	users, err := h.api.Users.List(r.Context())
	if err != nil {
		h.failRedirect(w, r, "/admin/users", err)
		return nil, false
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], true
		}
	}
	h.redirect(w, r, "/admin/users", map[string]string{"error": "El usuario ya no existe"})
	return nil, false
}

// absoluteInviteURL joins the backend's relative invite path onto the
// dashboard's own base URL; invites are served by this app.
func (h *Handler) absoluteInviteURL(path string) string {
	if path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.cfg.BaseURL, "/") + path
}
