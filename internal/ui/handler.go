package ui

import (
	"html/template"
	"net/http"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/auth"
	"github.com/example/cartdash/internal/availability"
	"github.com/example/cartdash/internal/calendar"
	"github.com/example/cartdash/internal/config"
	"github.com/example/cartdash/internal/session"
	"github.com/example/cartdash/internal/usernames"
)

// Handler serves the server-rendered dashboard pages.
type Handler struct {
	cfg          *config.Config
	api          *api.Client
	sessions     *session.Manager
	availability *availability.Checker
	usernames    *usernames.Checker
	templates    map[string]*template.Template
}

func NewHandler(cfg *config.Config, client *api.Client, sessions *session.Manager) *Handler {
	return &Handler{
		cfg:          cfg,
		api:          client,
		sessions:     sessions,
		availability: availability.NewChecker(client.Bookings),
		usernames:    usernames.NewChecker(client.Users),
		templates:    templates,
	}
}

// Dashboard is the authenticated landing page: a couple of counts and
// the month's own assignments. Every list degrades to empty on failure
// so the page always renders.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	carts, _ := h.api.Carts.List(r.Context())
	events, _ := h.api.Events.List(r.Context())

	month := calendar.MonthOf(timeNow())
	points, _ := h.api.MeetingPoints.List(r.Context(), month.String())
	mine := 0
	for _, ev := range calendar.MeetingPointEvents(points, id.UserID) {
		if ev.IsMine {
			mine++
		}
	}

	active := 0
	for _, c := range carts {
		if c.Active {
			active++
		}
	}

	data := h.withFlash(r, map[string]any{
		"Title":           "Panel",
		"Identity":        id,
		"ActiveCartCount": active,
		"EventCount":      len(events),
		"MonthLabel":      month.Label(),
		"MyAssignments":   mine,
	})
	h.render(w, r, "dashboard.html", data)
}
