package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/example/cartdash/internal/metrics"
)

// Client aggregates the per-area backend services behind one transport.
type Client struct {
	Auth          AuthService
	Registration  RegistrationService
	Carts         CartService
	Events        EventService
	Users         UserService
	Bookings      BookingService
	MeetingPoints MeetingPointService
}

// New builds a client for the backend REST API rooted at baseURL. A nil
// httpClient falls back to a client with a sane timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	t := &transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "backend-api",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}

	return &Client{
		Auth:          &authService{t},
		Registration:  &registrationService{t},
		Carts:         &cartService{t},
		Events:        &eventService{t},
		Users:         &userService{t},
		Bookings:      &bookingService{t},
		MeetingPoints: &meetingPointService{t},
	}
}

type bearerKey struct{}

// WithBearer attaches the session's access token to a request context.
// The transport sends it as the Authorization header on every call.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFromContext returns the access token attached to ctx, if any.
func BearerFromContext(ctx context.Context) string {
	t, _ := ctx.Value(bearerKey{}).(string)
	return t
}

type transport struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type rawResponse struct {
	status int
	body   []byte
	header http.Header
}

// do issues one JSON request and decodes the response into out (when
// non-nil). Backend 4xx responses are mapped onto the error taxonomy and
// do not count against the circuit breaker; transport failures and 5xx
// responses do.
func (t *transport) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	defer observeBackend(ctx, method+" "+path)()

	raw, err := t.roundTrip(ctx, method, path, query, body, "application/json")
	if err != nil {
		return err
	}
	if err := mapStatus(raw); err != nil {
		return err
	}
	if out == nil || len(raw.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw.body, out); err != nil {
		return &NetworkError{Err: fmt.Errorf("decode %s %s: %w", method, path, err)}
	}
	return nil
}

// stream issues a request and hands back the raw body for binary
// downloads (PDF export). The caller must close the reader.
func (t *transport) stream(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if token := BearerFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return nil, mapStatus(&rawResponse{status: res.StatusCode, body: body, header: res.Header})
	}
	return res.Body, nil
}

func (t *transport) roundTrip(ctx context.Context, method, path string, query url.Values, body any, accept string) (*rawResponse, error) {
	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &NetworkError{Err: fmt.Errorf("encode %s %s: %w", method, path, err)}
		}
		payload = bytes.NewReader(buf)
	}

	result, err := t.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, u, payload)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", accept)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := BearerFromContext(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		res, err := t.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		buf, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("backend returned status %d", res.StatusCode)
		}
		return &rawResponse{status: res.StatusCode, body: buf, header: res.Header}, nil
	})
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return result.(*rawResponse), nil
}

func mapStatus(raw *rawResponse) error {
	if raw.status < http.StatusBadRequest {
		return nil
	}
	detail := errorDetail(raw.body)
	switch raw.status {
	case http.StatusUnauthorized:
		return &AuthError{Detail: detail}
	case http.StatusNotFound:
		return &NotFoundError{Detail: detail}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &ValidationError{Status: raw.status, Detail: detail}
	default:
		return &NetworkError{Err: fmt.Errorf("unexpected status %d", raw.status)}
	}
}

// errorDetail extracts the backend's {"detail": "..."} message.
func errorDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Detail
}

func observeBackend(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveBackendLatency(ctx, operation, start)
	}
}
