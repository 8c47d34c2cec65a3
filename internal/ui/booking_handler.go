package ui

import (
	"encoding/json"
	goerrors "errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/auth"
	"github.com/example/cartdash/internal/availability"
	"github.com/example/cartdash/internal/calendar"
	"github.com/example/cartdash/internal/http/errors"
)

// Bookings renders the cart reservation calendar for one month.
func (h *Handler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	month := h.monthParam(r)

	// Every list degrades to empty on failure so the month still renders.
	bookings, err := h.api.Bookings.List(r.Context(), month.String())
	if err != nil {
		errors.LogError(r, "failed to load bookings", err)
		bookings = nil
	}
	carts, err := h.api.Carts.List(r.Context())
	if err != nil {
		errors.LogError(r, "failed to load carts", err)
		carts = nil
	}
	// Participant names are decoration: the calendar still works when the
	// user list is not readable for this role.
	users, _ := h.api.Users.List(r.Context())

	cartNames := make(map[uuid.UUID]string, len(carts))
	var activeCarts []api.Cart
	for _, c := range carts {
		cartNames[c.ID] = c.Name
		if c.Active {
			activeCarts = append(activeCarts, c)
		}
	}
	userNames := make(map[uuid.UUID]string, len(users))
	var activeUsers []api.User
	for _, u := range users {
		userNames[u.ID] = u.FullName()
		if u.Active {
			activeUsers = append(activeUsers, u)
		}
	}

	events := calendar.BookingEvents(bookings, cartNames, userNames, id.UserID)

	data := h.withFlash(r, map[string]any{
		"Title":      "Reservas de carrito",
		"Month":      month,
		"MonthLabel": month.Label(),
		"PrevMonth":  month.Prev().String(),
		"NextMonth":  month.Next().String(),
		"Grid":       calendar.Grid(month, events, timeNow()),
		"Events":     events,
		"Carts":      activeCarts,
		"Users":      activeUsers,
		"UserID":     id.UserID,
	})
	h.render(w, r, "bookings.html", data)
}

// BookingAvailability answers the free-slot probe the booking form fires
// when its interval changes. Stale probes superseded by a newer change
// return 204 so the form keeps its current numbers.
func (h *Handler) BookingAvailability(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	q := r.URL.Query()

	start, err := parseDateTimeLocal(q.Get("start"))
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}
	end, err := parseDateTimeLocal(q.Get("end"))
	if err != nil {
		http.Error(w, "invalid end", http.StatusBadRequest)
		return
	}

	slots, err := h.availability.Check(r.Context(), id.SessionID, start, end)
	switch {
	case goerrors.Is(err, availability.ErrSuperseded):
		w.WriteHeader(http.StatusNoContent)
		return
	case goerrors.Is(err, availability.ErrInvalidRange):
		http.Error(w, "end must be after start", http.StatusBadRequest)
		return
	case err != nil:
		errors.LogError(r, "availability check failed", err)
		http.Error(w, "check failed", http.StatusBadGateway)
		return
	}

	// Carts absent from the response stay unknown on the form; zero means
	// a confirmed full cart.
	out := make(map[string]int, len(slots))
	for cartID, n := range slots {
		out[cartID.String()] = n
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"slots": out})
}

// CreateBooking reserves a cart. The participant rules are enforced here
// before anything reaches the backend.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	month := r.FormValue("month")
	back := "/user/bookings"
	fail := func(message string) {
		h.redirect(w, r, back, map[string]string{"month": month, "error": message})
	}

	cartID, err := uuid.Parse(r.FormValue("cart_id"))
	if err != nil {
		fail("Selecciona un carrito")
		return
	}

	var participants []uuid.UUID
	for _, raw := range r.Form["participants"] {
		pid, err := uuid.Parse(raw)
		if err != nil {
			fail("Participante no válido")
			return
		}
		participants = append(participants, pid)
	}
	if err := availability.ValidateParticipants(participants); err != nil {
		fail(participantsMessage(err))
		return
	}

	start, err := parseDateTimeLocal(r.FormValue("start_datetime"))
	if err != nil {
		fail("Fecha de inicio no válida")
		return
	}
	end, err := parseDateTimeLocal(r.FormValue("end_datetime"))
	if err != nil {
		fail("Fecha de fin no válida")
		return
	}
	if !end.After(start) {
		fail("El fin debe ser posterior al inicio")
		return
	}

	_, err = h.api.Bookings.Create(r.Context(), api.BookingCreate{
		CartID:         cartID,
		ParticipantIDs: participants,
		StartDatetime:  start,
		EndDatetime:    end,
	})
	if err != nil {
		h.failRedirect(w, r, back, err)
		return
	}
	h.redirect(w, r, back, map[string]string{"month": month, "status": "booked"})
}

// DeleteBooking cancels a reservation.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}
	month := r.URL.Query().Get("month")
	if err := h.api.Bookings.Delete(r.Context(), id); err != nil {
		h.failRedirect(w, r, "/user/bookings", err)
		return
	}
	h.redirect(w, r, "/user/bookings", map[string]string{"month": month, "status": "cancelled"})
}

// monthParam reads the ?month=YYYY-MM query, defaulting to the current
// month on absence or garbage.
func (h *Handler) monthParam(r *http.Request) calendar.Month {
	if raw := r.URL.Query().Get("month"); raw != "" {
		if m, err := calendar.ParseMonth(raw); err == nil {
			return m
		}
	}
	return calendar.MonthOf(timeNow())
}

func participantsMessage(err error) string {
	switch {
	case goerrors.Is(err, availability.ErrNoParticipants):
		return "Selecciona al menos un participante"
	case goerrors.Is(err, availability.ErrTooManyParticipants):
		return "Una reserva admite como máximo 2 participantes"
	default:
		return "Participantes no válidos"
	}
}
