package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 maps to AuthError",
			status: http.StatusUnauthorized,
			body:   `{"detail": "token expired"}`,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, "token expired", authErr.Detail)
			},
		},
		{
			name:   "404 maps to NotFoundError",
			status: http.StatusNotFound,
			body:   `{"detail": "cart not found"}`,
			check: func(t *testing.T, err error) {
				var notFound *NotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, "cart not found", notFound.Detail)
			},
		},
		{
			name:   "409 maps to ValidationError",
			status: http.StatusConflict,
			body:   `{"detail": "cart already booked"}`,
			check: func(t *testing.T, err error) {
				var valErr *ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, http.StatusConflict, valErr.Status)
				assert.Equal(t, "cart already booked", valErr.Detail)
			},
		},
		{
			name:   "422 maps to ValidationError",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail": "end before start"}`,
			check: func(t *testing.T, err error) {
				var valErr *ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, http.StatusUnprocessableEntity, valErr.Status)
			},
		},
		{
			name:   "500 maps to NetworkError",
			status: http.StatusInternalServerError,
			body:   `boom`,
			check: func(t *testing.T, err error) {
				var netErr *NetworkError
				require.ErrorAs(t, err, &netErr)
			},
		},
		{
			name:   "detail-less body keeps empty detail",
			status: http.StatusNotFound,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				var notFound *NotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Empty(t, notFound.Detail)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := New(srv.URL, srv.Client())
			_, err := client.Carts.List(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestBearerHeaderFromContext(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]Cart{})
	}))
	defer srv.Close()

	client := New(srv.URL, srv.Client())

	_, err := client.Carts.List(WithBearer(context.Background(), "tok-123"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", got)

	_, err = client.Carts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "no Authorization header without a bearer in context")
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "nope"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(srv.URL, srv.Client())

	// Far more consecutive 4xx responses than the trip threshold; each
	// one must still reach the backend and map to NotFoundError.
	for i := 0; i < 10; i++ {
		_, err := client.Carts.List(context.Background())
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound, "call %d", i)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, srv.Client())

	for i := 0; i < 5; i++ {
		_, err := client.Carts.List(context.Background())
		require.Error(t, err)
	}

	_, err := client.Carts.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestNullFieldTolerance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": "8e5c905c-6169-4f55-b2b4-9bba6de35d50", "date": "2026-08-01", "time": "10:00:00",
			 "location": "Plaza Mayor", "conductor_id": null, "conductor_name": null,
			 "outline": null, "link": null, "month": "2026-08", "series_id": null}
		]`))
	}))
	defer srv.Close()

	client := New(srv.URL, srv.Client())
	points, err := client.MeetingPoints.List(context.Background(), "2026-08")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "Plaza Mayor", points[0].Location)
	assert.Nil(t, points[0].ConductorID)
	assert.Nil(t, points[0].ConductorName)
	assert.Nil(t, points[0].SeriesID)
}

func TestLoginRequest(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(Credentials{
			AccessToken:  "at",
			RefreshToken: "rt",
			TokenType:    "bearer",
			Roles:        []string{"publisher"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, srv.Client())
	creds, err := client.Auth.Login(context.Background(), "maria", "secret")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"identifier": "maria", "password": "secret"}, gotBody)
	assert.Equal(t, "at", creds.AccessToken)
	assert.Equal(t, []string{"publisher"}, creds.Roles)
}

func TestAvailableSlotsQuery(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode([]AvailableSlot{
			{CartID: uuid.MustParse("8e5c905c-6169-4f55-b2b4-9bba6de35d50"), AvailableSlots: 2},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, srv.Client())
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	slots, err := client.Bookings.AvailableSlots(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].AvailableSlots)
	assert.Equal(t, []string{"2026-08-01T10:00:00Z"}, gotQuery["start_datetime"])
	assert.Equal(t, []string{"2026-08-01T12:00:00Z"}, gotQuery["end_datetime"])
}
