package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// EventService covers event CRUD.
type EventService interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, data EventCreate) (*Event, error)
	Update(ctx context.Context, id uuid.UUID, data EventCreate) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventService struct {
	t *transport
}

func (s *eventService) List(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := s.t.do(ctx, http.MethodGet, "/events", nil, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *eventService) Create(ctx context.Context, data EventCreate) (*Event, error) {
	var event Event
	if err := s.t.do(ctx, http.MethodPost, "/events", nil, data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *eventService) Update(ctx context.Context, id uuid.UUID, data EventCreate) (*Event, error) {
	var event Event
	if err := s.t.do(ctx, http.MethodPut, "/events/"+id.String(), nil, data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *eventService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.t.do(ctx, http.MethodDelete, "/events/"+id.String(), nil, nil, nil)
}
