package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// BookingService covers cart reservations and availability queries.
type BookingService interface {
	List(ctx context.Context, month string) ([]Booking, error)
	ListByCart(ctx context.Context, cartID uuid.UUID) ([]Booking, error)
	Create(ctx context.Context, data BookingCreate) (*Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AvailableSlots(ctx context.Context, start, end time.Time) ([]AvailableSlot, error)
}

type bookingService struct {
	t *transport
}

func (s *bookingService) List(ctx context.Context, month string) ([]Booking, error) {
	q := url.Values{"month": {month}}
	var bookings []Booking
	if err := s.t.do(ctx, http.MethodGet, "/bookings", q, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *bookingService) ListByCart(ctx context.Context, cartID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	if err := s.t.do(ctx, http.MethodGet, "/bookings/cart/"+cartID.String(), nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *bookingService) Create(ctx context.Context, data BookingCreate) (*Booking, error) {
	var booking Booking
	if err := s.t.do(ctx, http.MethodPost, "/bookings", nil, data, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *bookingService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.t.do(ctx, http.MethodDelete, "/bookings/"+id.String(), nil, nil, nil)
}

func (s *bookingService) AvailableSlots(ctx context.Context, start, end time.Time) ([]AvailableSlot, error) {
	q := url.Values{
		"start_datetime": {start.UTC().Format(time.RFC3339)},
		"end_datetime":   {end.UTC().Format(time.RFC3339)},
	}
	var slots []AvailableSlot
	if err := s.t.do(ctx, http.MethodGet, "/bookings/available-slots", q, nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}
