package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/auth"
	"github.com/example/cartdash/internal/config"
	"github.com/example/cartdash/internal/http/csrf"
	"github.com/example/cartdash/internal/http/ratelimit"
	"github.com/example/cartdash/internal/metrics"
	"github.com/example/cartdash/internal/session"
	"github.com/example/cartdash/internal/store"
	"github.com/example/cartdash/internal/ui"
)

// NewRouter wires all HTTP routes for the dashboard.
func NewRouter(cfg *config.Config, st *store.Store, client *api.Client, sessions *session.Manager) http.Handler {
	r := chi.NewRouter()

	// Credential endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.New(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(overrideMethod)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	guard := auth.NewGuard(sessions)
	uiHandler := ui.NewHandler(cfg, client, sessions)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/user", http.StatusFound)
	})

	// Public pages: login and invite registration, both rate limited.
	r.Group(func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Use(csrf.Middleware(cfg))
		r.Get("/login", uiHandler.LoginForm)
		r.Post("/login", uiHandler.Login)
		r.Get("/register/{token}", uiHandler.RegisterForm)
		r.Post("/register/{token}", uiHandler.Register)
	})

	r.With(guard.RequireSession, csrf.Middleware(cfg)).Post("/logout", uiHandler.Logout)

	// Authenticated member pages.
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireSession)
		r.Use(csrf.Middleware(cfg))

		r.Get("/user", uiHandler.Dashboard)
		r.Get("/user/carts", uiHandler.Carts)
		r.Get("/user/events", uiHandler.Events)

		r.Get("/user/bookings", uiHandler.Bookings)
		r.Get("/user/bookings/availability", uiHandler.BookingAvailability)
		r.Post("/user/bookings", uiHandler.CreateBooking)
		r.Delete("/user/bookings/{id}", uiHandler.DeleteBooking)

		r.Get("/user/meeting-points", uiHandler.MeetingPoints)
		r.Get("/user/meeting-points/export", uiHandler.ExportMeetingPointsPDF)

		// Schedule mutations and statistics need the planner role.
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireRole(api.RoleFieldServicePlanner))
			r.Get("/user/meeting-points/stats", uiHandler.MeetingPointStats)
			r.Post("/user/meeting-points", uiHandler.CreateMeetingPoint)
			r.Post("/user/meeting-points/series", uiHandler.CreateMeetingPointSeries)
			r.Put("/user/meeting-points/{id}", uiHandler.UpdateMeetingPoint)
			r.Delete("/user/meeting-points/{id}", uiHandler.DeleteMeetingPoint)
			r.Delete("/user/meeting-points/series/{seriesID}", uiHandler.DeleteMeetingPointSeries)
		})
	})

	// Admin pages.
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireSession)
		r.Use(csrf.Middleware(cfg))
		r.Use(guard.RequireRole(api.RoleAdmin))

		r.Get("/admin/carts", uiHandler.AdminCarts)
		r.Post("/admin/carts", uiHandler.CreateCart)
		r.Put("/admin/carts/{id}", uiHandler.UpdateCart)
		r.Post("/admin/carts/{id}/toggle", uiHandler.ToggleCart)
		r.Delete("/admin/carts/{id}", uiHandler.DeleteCart)

		r.Get("/admin/events", uiHandler.AdminEvents)
		r.Post("/admin/events", uiHandler.CreateEvent)
		r.Put("/admin/events/{id}", uiHandler.UpdateEvent)
		r.Delete("/admin/events/{id}", uiHandler.DeleteEvent)

		r.Get("/admin/users", uiHandler.AdminUsers)
		r.Get("/admin/users/check-username", uiHandler.CheckUsername)
		r.Post("/admin/users", uiHandler.CreateUser)
		r.Put("/admin/users/{id}/roles", uiHandler.UpdateUserRoles)
		r.Post("/admin/users/{id}/toggle", uiHandler.ToggleUser)
		r.Post("/admin/users/{id}/invite", uiHandler.InviteUser)
		r.Post("/admin/users/{id}/reset-password", uiHandler.ResetUserPassword)
		r.Delete("/admin/users/{id}", uiHandler.DeleteUser)
	})

	// Unknown paths go to the login page rather than a bare 404; the
	// guard bounces signed-in visitors back to the dashboard.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	return r
}

func overrideMethod(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if r.Method == http.MethodPost {
			if m := strings.TrimSpace(r.PostFormValue("_method")); m != "" {
				method = m
			} else if m := strings.TrimSpace(r.URL.Query().Get("_method")); m != "" {
				method = m
			}
		}
		switch strings.ToUpper(method) {
		case http.MethodPut, http.MethodDelete:
			r.Method = strings.ToUpper(method)
		}
		next.ServeHTTP(w, r)
	})
}
