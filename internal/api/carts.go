package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CartService covers cart CRUD and the active toggle.
type CartService interface {
	List(ctx context.Context) ([]Cart, error)
	Create(ctx context.Context, data CartCreate) (*Cart, error)
	Update(ctx context.Context, id uuid.UUID, data CartCreate) (*Cart, error)
	Toggle(ctx context.Context, id uuid.UUID) (*Cart, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cartService struct {
	t *transport
}

func (s *cartService) List(ctx context.Context) ([]Cart, error) {
	var carts []Cart
	if err := s.t.do(ctx, http.MethodGet, "/carts", nil, nil, &carts); err != nil {
		return nil, err
	}
	return carts, nil
}

func (s *cartService) Create(ctx context.Context, data CartCreate) (*Cart, error) {
	var cart Cart
	if err := s.t.do(ctx, http.MethodPost, "/carts", nil, data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *cartService) Update(ctx context.Context, id uuid.UUID, data CartCreate) (*Cart, error) {
	var cart Cart
	if err := s.t.do(ctx, http.MethodPut, "/carts/"+id.String(), nil, data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *cartService) Toggle(ctx context.Context, id uuid.UUID) (*Cart, error) {
	var cart Cart
	if err := s.t.do(ctx, http.MethodPost, "/carts/"+id.String()+"/toggle", nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *cartService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.t.do(ctx, http.MethodDelete, "/carts/"+id.String(), nil, nil, nil)
}
