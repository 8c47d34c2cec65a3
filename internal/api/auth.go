package api

import (
	"context"
	"net/http"
)

// AuthService covers the backend's credential endpoints.
type AuthService interface {
	Login(ctx context.Context, identifier, password string) (*Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (*Credentials, error)
	Logout(ctx context.Context, refreshToken string) error
}

// RegistrationService covers the invite-token registration flow.
type RegistrationService interface {
	ValidateInvite(ctx context.Context, token string) (*InviteValidation, error)
	CompleteRegistration(ctx context.Context, token, password string) error
}

type authService struct {
	t *transport
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*Credentials, error) {
	body := map[string]string{"identifier": identifier, "password": password}
	var creds Credentials
	if err := s.t.do(ctx, http.MethodPost, "/auth/login", nil, body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var creds Credentials
	if err := s.t.do(ctx, http.MethodPost, "/auth/refresh", nil, body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return s.t.do(ctx, http.MethodPost, "/auth/logout", nil, body, nil)
}

type registrationService struct {
	t *transport
}

func (s *registrationService) ValidateInvite(ctx context.Context, token string) (*InviteValidation, error) {
	var out InviteValidation
	if err := s.t.do(ctx, http.MethodGet, "/register/"+token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *registrationService) CompleteRegistration(ctx context.Context, token, password string) error {
	body := map[string]string{"password": password}
	return s.t.do(ctx, http.MethodPost, "/register/"+token, nil, body, nil)
}
