package ui

import (
	"net/http"
	"sort"
	"strings"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/http/errors"
)

// Events lists upcoming events for regular users.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.api.Events.List(r.Context())
	if err != nil {
		// Degrade to the empty state: the page stays usable while the
		// backend is down.
		errors.LogError(r, "failed to load events", err)
		events = nil
	}

	now := timeNow()
	var upcoming []api.Event
	for _, e := range events {
		if e.EndDatetime.After(now) {
			upcoming = append(upcoming, e)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartDatetime.Before(upcoming[j].StartDatetime)
	})

	data := h.withFlash(r, map[string]any{
		"Title":  "Eventos",
		"Events": upcoming,
	})
	h.render(w, r, "events.html", data)
}

// AdminEvents lists every event with management actions.
func (h *Handler) AdminEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.api.Events.List(r.Context())
	if err != nil {
		errors.LogError(r, "failed to load events", err)
		events = nil
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartDatetime.Before(events[j].StartDatetime)
	})

	data := h.withFlash(r, map[string]any{
		"Title":  "Gestión de eventos",
		"Events": events,
	})
	h.render(w, r, "admin_events.html", data)
}

// CreateEvent creates an event from the admin form.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	create, ok := h.eventFromForm(w, r)
	if !ok {
		return
	}

	if _, err := h.api.Events.Create(r.Context(), *create); err != nil {
		h.failRedirect(w, r, "/admin/events", err)
		return
	}
	h.redirect(w, r, "/admin/events", map[string]string{"status": "created"})
}

// UpdateEvent rewrites an event from the admin form.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	update, ok := h.eventFromForm(w, r)
	if !ok {
		return
	}

	if _, err := h.api.Events.Update(r.Context(), id, *update); err != nil {
		h.failRedirect(w, r, "/admin/events", err)
		return
	}
	h.redirect(w, r, "/admin/events", map[string]string{"status": "updated"})
}

// DeleteEvent removes an event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}

	if err := h.api.Events.Delete(r.Context(), id); err != nil {
		h.failRedirect(w, r, "/admin/events", err)
		return
	}
	h.redirect(w, r, "/admin/events", map[string]string{"status": "deleted"})
}

// eventFromForm parses and validates the shared create/update form.
// On a validation problem it redirects with a flash and returns ok=false.
func (h *Handler) eventFromForm(w http.ResponseWriter, r *http.Request) (*api.EventCreate, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return nil, false
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.redirect(w, r, "/admin/events", map[string]string{"error": "El nombre es obligatorio"})
		return nil, false
	}

	start, err := parseDateTimeLocal(r.FormValue("start_datetime"))
	if err != nil {
		h.redirect(w, r, "/admin/events", map[string]string{"error": "Fecha de inicio no válida"})
		return nil, false
	}
	end, err := parseDateTimeLocal(r.FormValue("end_datetime"))
	if err != nil {
		h.redirect(w, r, "/admin/events", map[string]string{"error": "Fecha de fin no válida"})
		return nil, false
	}
	if !end.After(start) {
		h.redirect(w, r, "/admin/events", map[string]string{"error": "El fin debe ser posterior al inicio"})
		return nil, false
	}

	create := &api.EventCreate{
		Name:          name,
		StartDatetime: start,
		EndDatetime:   end,
	}
	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		create.Description = &desc
	}
	return create, true
}
