package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// UserService covers the admin user management endpoints.
type UserService interface {
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, data UserCreate) (*CreatedUser, error)
	UpdateRoles(ctx context.Context, id uuid.UUID, roles RoleSet) (*User, error)
	Toggle(ctx context.Context, id uuid.UUID) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CheckUsername(ctx context.Context, username string) (*UsernameCheck, error)
	Invite(ctx context.Context, id uuid.UUID) (string, error)
	ResetPassword(ctx context.Context, id uuid.UUID) (string, error)
}

type userService struct {
	t *transport
}

func (s *userService) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.t.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *userService) Create(ctx context.Context, data UserCreate) (*CreatedUser, error) {
	var created CreatedUser
	if err := s.t.do(ctx, http.MethodPost, "/users", nil, data, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *userService) UpdateRoles(ctx context.Context, id uuid.UUID, roles RoleSet) (*User, error) {
	body := map[string][]string{"roles": roles.Strings()}
	var user User
	if err := s.t.do(ctx, http.MethodPut, "/users/"+id.String()+"/roles", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) Toggle(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	if err := s.t.do(ctx, http.MethodPost, "/users/"+id.String()+"/toggle", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.t.do(ctx, http.MethodDelete, "/users/"+id.String(), nil, nil, nil)
}

func (s *userService) CheckUsername(ctx context.Context, username string) (*UsernameCheck, error) {
	var check UsernameCheck
	path := "/users/check-username/" + url.PathEscape(username)
	if err := s.t.do(ctx, http.MethodGet, path, nil, nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

func (s *userService) Invite(ctx context.Context, id uuid.UUID) (string, error) {
	var out struct {
		InviteURL string `json:"invite_url"`
	}
	if err := s.t.do(ctx, http.MethodGet, "/users/"+id.String()+"/invite", nil, nil, &out); err != nil {
		return "", err
	}
	return out.InviteURL, nil
}

func (s *userService) ResetPassword(ctx context.Context, id uuid.UUID) (string, error) {
	var out struct {
		InviteURL string `json:"invite_url"`
	}
	if err := s.t.do(ctx, http.MethodPost, "/users/"+id.String()+"/reset-password", nil, nil, &out); err != nil {
		return "", err
	}
	return out.InviteURL, nil
}
