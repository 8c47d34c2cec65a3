package ui

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/auth"
	"github.com/example/cartdash/internal/calendar"
	"github.com/example/cartdash/internal/http/errors"
)

// MeetingPoints renders the public-witnessing schedule for one month as
// both a table and a calendar grid.
func (h *Handler) MeetingPoints(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	month := h.monthParam(r)

	points, err := h.api.MeetingPoints.List(r.Context(), month.String())
	if err != nil {
		// Degrade to the empty state: the page stays usable while the
		// backend is down.
		errors.LogError(r, "failed to load meeting points", err)
		points = nil
	}

	events := calendar.MeetingPointEvents(points, id.UserID)
	canEdit := id.Roles.Allows(api.RoleFieldServicePlanner)

	var conductors []api.User
	if canEdit {
		// Conductor candidates for the planner forms; the page still
		// renders read-only content when the list is not readable.
		users, err := h.api.Users.List(r.Context())
		if err == nil {
			for _, u := range users {
				if u.Active {
					conductors = append(conductors, u)
				}
			}
		}
	}

	data := h.withFlash(r, map[string]any{
		"Title":      "Puntos de encuentro",
		"Month":      month,
		"MonthLabel": month.Label(),
		"PrevMonth":  month.Prev().String(),
		"NextMonth":  month.Next().String(),
		"Grid":       calendar.Grid(month, events, timeNow()),
		"Events":     events,
		"CanEdit":    canEdit,
		"Conductors": conductors,
	})
	h.render(w, r, "meeting_points.html", data)
}

// CreateMeetingPoint creates a single occurrence.
func (h *Handler) CreateMeetingPoint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	month := r.FormValue("month")
	fail := func(message string) {
		h.redirect(w, r, "/user/meeting-points", map[string]string{"month": month, "error": message})
	}

	date := strings.TrimSpace(r.FormValue("date"))
	clock := strings.TrimSpace(r.FormValue("time"))
	location := strings.TrimSpace(r.FormValue("location"))
	if date == "" || clock == "" || location == "" {
		fail("Fecha, hora y lugar son obligatorios")
		return
	}

	create := api.MeetingPointCreate{Date: date, Time: clock, Location: location}
	if ok := h.fillOptionalFields(r, &create.ConductorID, &create.Outline, &create.Link); !ok {
		fail("Conductor no válido")
		return
	}

	if _, err := h.api.MeetingPoints.Create(r.Context(), create); err != nil {
		h.failRedirect(w, r, "/user/meeting-points", err)
		return
	}
	h.redirect(w, r, "/user/meeting-points", map[string]string{"month": month, "status": "created"})
}

// CreateMeetingPointSeries creates a recurring series of occurrences.
func (h *Handler) CreateMeetingPointSeries(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	month := r.FormValue("month")
	fail := func(message string) {
		h.redirect(w, r, "/user/meeting-points", map[string]string{"month": month, "error": message})
	}

	startDate := strings.TrimSpace(r.FormValue("start_date"))
	endDate := strings.TrimSpace(r.FormValue("end_date"))
	clock := strings.TrimSpace(r.FormValue("time"))
	location := strings.TrimSpace(r.FormValue("location"))
	if startDate == "" || endDate == "" || clock == "" || location == "" {
		fail("Fechas, hora y lugar son obligatorios")
		return
	}
	if endDate < startDate {
		fail("La fecha final debe ser posterior a la inicial")
		return
	}

	recurrence := api.Recurrence(r.FormValue("recurrence"))
	switch recurrence {
	case api.RecurrenceWeekly, api.RecurrenceBiweekly, api.RecurrenceMonthly:
	default:
		fail("Recurrencia no válida")
		return
	}

	create := api.MeetingPointSeriesCreate{
		StartDate:  startDate,
		EndDate:    endDate,
		Recurrence: recurrence,
		Time:       clock,
		Location:   location,
	}
	if ok := h.fillOptionalFields(r, &create.ConductorID, &create.Outline, &create.Link); !ok {
		fail("Conductor no válido")
		return
	}

	created, err := h.api.MeetingPoints.CreateSeries(r.Context(), create)
	if err != nil {
		h.failRedirect(w, r, "/user/meeting-points", err)
		return
	}
	h.redirect(w, r, "/user/meeting-points", map[string]string{
		"month":  month,
		"status": fmt.Sprintf("series_created_%d", len(created)),
	})
}

// UpdateMeetingPoint rewrites one occurrence from the edit form.
func (h *Handler) UpdateMeetingPoint(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid meeting point id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	month := r.FormValue("month")
	fail := func(message string) {
		h.redirect(w, r, "/user/meeting-points", map[string]string{"month": month, "error": message})
	}

	update := api.MeetingPointUpdate{}
	if date := strings.TrimSpace(r.FormValue("date")); date != "" {
		update.Date = &date
	}
	if clock := strings.TrimSpace(r.FormValue("time")); clock != "" {
		update.Time = &clock
	}
	if location := strings.TrimSpace(r.FormValue("location")); location != "" {
		update.Location = &location
	}
	if ok := h.fillOptionalFields(r, &update.ConductorID, &update.Outline, &update.Link); !ok {
		fail("Conductor no válido")
		return
	}

	if _, err := h.api.MeetingPoints.Update(r.Context(), id, update); err != nil {
		h.failRedirect(w, r, "/user/meeting-points", err)
		return
	}
	h.redirect(w, r, "/user/meeting-points", map[string]string{"month": month, "status": "updated"})
}

// DeleteMeetingPoint removes one occurrence.
func (h *Handler) DeleteMeetingPoint(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid meeting point id", http.StatusBadRequest)
		return
	}
	month := r.URL.Query().Get("month")

	if err := h.api.MeetingPoints.Delete(r.Context(), id); err != nil {
		h.failRedirect(w, r, "/user/meeting-points", err)
		return
	}
	h.redirect(w, r, "/user/meeting-points", map[string]string{"month": month, "status": "deleted"})
}

// DeleteMeetingPointSeries removes every remaining occurrence of a series.
func (h *Handler) DeleteMeetingPointSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, err := idParam(r, "seriesID")
	if err != nil {
		http.Error(w, "invalid series id", http.StatusBadRequest)
		return
	}
	month := r.URL.Query().Get("month")

	deleted, err := h.api.MeetingPoints.DeleteSeries(r.Context(), seriesID)
	if err != nil {
		h.failRedirect(w, r, "/user/meeting-points", err)
		return
	}
	h.redirect(w, r, "/user/meeting-points", map[string]string{
		"month":  month,
		"status": fmt.Sprintf("series_deleted_%d", deleted),
	})
}

// ExportMeetingPointsPDF proxies the backend's month PDF to the browser.
func (h *Handler) ExportMeetingPointsPDF(w http.ResponseWriter, r *http.Request) {
	month := h.monthParam(r)

	body, err := h.api.MeetingPoints.ExportPDF(r.Context(), month.String())
	if err != nil {
		h.failRedirect(w, r, "/user/meeting-points", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "puntos_encuentro_"+month.String()+".pdf"))
	if _, err := io.Copy(w, body); err != nil {
		errors.LogError(r, "pdf export copy failed", err)
	}
}

// MeetingPointStats renders the yearly conductor statistics.
func (h *Handler) MeetingPointStats(w http.ResponseWriter, r *http.Request) {
	year := timeNow().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 2000 && parsed < 2200 {
			year = parsed
		}
	}

	conductorStats, err := h.api.MeetingPoints.ConductorStats(r.Context(), year)
	if err != nil {
		errors.InternalError(w, r, err, "failed to load conductor stats")
		return
	}
	monthlyStats, err := h.api.MeetingPoints.MonthlyStats(r.Context(), year)
	if err != nil {
		errors.InternalError(w, r, err, "failed to load monthly stats")
		return
	}

	// Pivot the flat per-month rows into one row per conductor with a
	// twelve-column count vector.
	type statRow struct {
		Name   string
		Counts [12]int
		Total  int
	}
	rows := make(map[uuid.UUID]*statRow)
	order := []uuid.UUID{}
	for _, s := range conductorStats {
		rows[s.UserID] = &statRow{Name: s.Firstname + " " + s.Lastname, Total: s.Count}
		order = append(order, s.UserID)
	}
	for _, s := range monthlyStats {
		row, ok := rows[s.UserID]
		if !ok {
			row = &statRow{Name: s.Firstname + " " + s.Lastname}
			rows[s.UserID] = row
			order = append(order, s.UserID)
		}
		if m, err := calendar.ParseMonth(s.Month); err == nil {
			row.Counts[int(m.Month)-1] += s.Count
		}
	}

	view := make([]*statRow, 0, len(order))
	for _, id := range order {
		view = append(view, rows[id])
	}

	data := h.withFlash(r, map[string]any{
		"Title":      "Estadísticas de conductores",
		"Year":       year,
		"PrevYear":   year - 1,
		"NextYear":   year + 1,
		"Conductors": conductorStats,
		"Rows":       view,
	})
	h.render(w, r, "meeting_point_stats.html", data)
}

// fillOptionalFields parses the optional conductor, outline and link
// fields shared by the occurrence and series forms. A malformed
// conductor id returns false; empty fields stay nil.
func (h *Handler) fillOptionalFields(r *http.Request, conductorID **uuid.UUID, outline, link **string) bool {
	if raw := strings.TrimSpace(r.FormValue("conductor_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return false
		}
		*conductorID = &id
	}
	if v := strings.TrimSpace(r.FormValue("outline")); v != "" {
		*outline = &v
	}
	if v := strings.TrimSpace(r.FormValue("link")); v != "" {
		*link = &v
	}
	return true
}
