package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/auth"
	"github.com/example/cartdash/internal/availability"
	"github.com/example/cartdash/internal/config"
	"github.com/example/cartdash/internal/session"
	"github.com/example/cartdash/internal/usernames"
)

var testUserID = uuid.MustParse("3f0e29a1-58a5-4c4e-9b36-2c9ee9d2a111")

func testHandler(client *api.Client) *Handler {
	cfg := &config.Config{BaseURL: "http://localhost:8080"}
	return &Handler{
		cfg:          cfg,
		api:          client,
		availability: availability.NewChecker(client.Bookings),
		usernames:    usernames.NewChecker(client.Users),
		templates:    templates,
	}
}

// identityRequest builds a request carrying an authenticated identity
// with the given roles.
func identityRequest(method, target string, form url.Values, roles ...api.Role) *http.Request {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	r := httptest.NewRequest(method, target, body)
	if form != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	id := &session.Identity{
		SessionID: "test-session",
		UserID:    testUserID,
		Token:     oauth2.Token{AccessToken: "tok"},
		Roles:     api.RoleSet(roles),
	}
	return r.WithContext(auth.WithIdentity(r.Context(), id))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type fakeCarts struct {
	api.CartService

	carts      []api.Cart
	listErr    error
	toggled    *api.Cart
	toggleErr  error
	created    []api.CartCreate
	deletedIDs []uuid.UUID
}

func (f *fakeCarts) List(ctx context.Context) ([]api.Cart, error) {
	return f.carts, f.listErr
}

func (f *fakeCarts) Create(ctx context.Context, data api.CartCreate) (*api.Cart, error) {
	f.created = append(f.created, data)
	return &api.Cart{ID: uuid.New(), Name: data.Name, Location: data.Location, Active: true}, nil
}

func (f *fakeCarts) Toggle(ctx context.Context, id uuid.UUID) (*api.Cart, error) {
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	return f.toggled, nil
}

func (f *fakeCarts) Delete(ctx context.Context, id uuid.UUID) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

type fakeEvents struct {
	api.EventService

	events  []api.Event
	listErr error
}

func (f *fakeEvents) List(ctx context.Context) ([]api.Event, error) {
	return f.events, f.listErr
}

type fakeUsers struct {
	api.UserService

	users       []api.User
	listErr     error
	check       *api.UsernameCheck
	checkErr    error
	toggleCalls int
	deleteCalls int
	rolesCalls  int
}

func (f *fakeUsers) List(ctx context.Context) ([]api.User, error) {
	return f.users, f.listErr
}

func (f *fakeUsers) CheckUsername(ctx context.Context, username string) (*api.UsernameCheck, error) {
	return f.check, f.checkErr
}

func (f *fakeUsers) Toggle(ctx context.Context, id uuid.UUID) (*api.User, error) {
	f.toggleCalls++
	return &api.User{ID: id, Active: false}, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleteCalls++
	return nil
}

func (f *fakeUsers) UpdateRoles(ctx context.Context, id uuid.UUID, roles api.RoleSet) (*api.User, error) {
	f.rolesCalls++
	return &api.User{ID: id, Roles: roles.Strings()}, nil
}

type fakeBookings struct {
	api.BookingService

	bookings []api.Booking
	listErr  error
	slots    []api.AvailableSlot
	slotsErr error
	created  []api.BookingCreate
}

func (f *fakeBookings) List(ctx context.Context, month string) ([]api.Booking, error) {
	return f.bookings, f.listErr
}

func (f *fakeBookings) Create(ctx context.Context, data api.BookingCreate) (*api.Booking, error) {
	f.created = append(f.created, data)
	return &api.Booking{
		ID:             uuid.New(),
		CartID:         data.CartID,
		ParticipantIDs: data.ParticipantIDs,
		StartDatetime:  data.StartDatetime,
		EndDatetime:    data.EndDatetime,
	}, nil
}

func (f *fakeBookings) AvailableSlots(ctx context.Context, start, end time.Time) ([]api.AvailableSlot, error) {
	return f.slots, f.slotsErr
}

type fakeMeetingPoints struct {
	api.MeetingPointService

	points        []api.MeetingPoint
	listErr       error
	deleted       []uuid.UUID
	deletedSeries []uuid.UUID
	seriesSize    int
}

func (f *fakeMeetingPoints) List(ctx context.Context, month string) ([]api.MeetingPoint, error) {
	return f.points, f.listErr
}

func (f *fakeMeetingPoints) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeMeetingPoints) DeleteSeries(ctx context.Context, seriesID uuid.UUID) (int, error) {
	f.deletedSeries = append(f.deletedSeries, seriesID)
	return f.seriesSize, nil
}
