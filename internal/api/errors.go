package api

import "fmt"

// AuthError reports rejected credentials (HTTP 401).
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "authentication failed"
	}
	return e.Detail
}

// ValidationError surfaces backend field errors (HTTP 400/409/422), e.g.
// a duplicate username or a fully booked cart.
type ValidationError struct {
	Status int
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request rejected (status %d)", e.Status)
	}
	return e.Detail
}

// NotFoundError reports a missing resource or an invalid/expired invite
// token (HTTP 404).
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return "not found"
	}
	return e.Detail
}

// NetworkError wraps transport failures and backend 5xx responses.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
