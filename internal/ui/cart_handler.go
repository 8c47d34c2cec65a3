package ui

import (
	"net/http"
	"strings"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/http/errors"
)

// Carts lists carts for regular users: active ones only, read-only.
func (h *Handler) Carts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.api.Carts.List(r.Context())
	if err != nil {
		// Degrade to the empty state: the page stays usable while the
		// backend is down.
		errors.LogError(r, "failed to load carts", err)
		carts = nil
	}

	var active []api.Cart
	for _, c := range carts {
		if c.Active {
			active = append(active, c)
		}
	}

	data := h.withFlash(r, map[string]any{
		"Title": "Carritos",
		"Carts": active,
	})
	h.render(w, r, "carts.html", data)
}

// AdminCarts lists every cart with management actions.
func (h *Handler) AdminCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.api.Carts.List(r.Context())
	if err != nil {
		errors.LogError(r, "failed to load carts", err)
		carts = nil
	}

	data := h.withFlash(r, map[string]any{
		"Title": "Gestión de carritos",
		"Carts": carts,
	})
	h.render(w, r, "admin_carts.html", data)
}

// CreateCart creates a cart from the admin form.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.redirect(w, r, "/admin/carts", map[string]string{"error": "El nombre es obligatorio"})
		return
	}

	create := api.CartCreate{Name: name}
	if loc := strings.TrimSpace(r.FormValue("location")); loc != "" {
		create.Location = &loc
	}

	if _, err := h.api.Carts.Create(r.Context(), create); err != nil {
		h.failRedirect(w, r, "/admin/carts", err)
		return
	}
	h.redirect(w, r, "/admin/carts", map[string]string{"status": "created"})
}

// UpdateCart renames or relocates a cart.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid cart id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.redirect(w, r, "/admin/carts", map[string]string{"error": "El nombre es obligatorio"})
		return
	}

	update := api.CartCreate{Name: name}
	if loc := strings.TrimSpace(r.FormValue("location")); loc != "" {
		update.Location = &loc
	}

	if _, err := h.api.Carts.Update(r.Context(), id, update); err != nil {
		h.failRedirect(w, r, "/admin/carts", err)
		return
	}
	h.redirect(w, r, "/admin/carts", map[string]string{"status": "updated"})
}

// ToggleCart flips a cart between active and inactive.
func (h *Handler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid cart id", http.StatusBadRequest)
		return
	}

	cart, err := h.api.Carts.Toggle(r.Context(), id)
	if err != nil {
		h.failRedirect(w, r, "/admin/carts", err)
		return
	}

	status := "deactivated"
	if cart.Active {
		status = "activated"
	}
	h.redirect(w, r, "/admin/carts", map[string]string{"status": status})
}

// DeleteCart removes a cart.
func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid cart id", http.StatusBadRequest)
		return
	}

	if err := h.api.Carts.Delete(r.Context(), id); err != nil {
		h.failRedirect(w, r, "/admin/carts", err)
		return
	}
	h.redirect(w, r, "/admin/carts", map[string]string{"status": "deleted"})
}
