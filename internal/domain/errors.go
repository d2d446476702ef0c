package domain

import "errors"

// Sentinel errors the HTTP layer maps onto status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError is one client-facing validation failure. Field may be empty
// for failures not tied to a single input field.
type FieldError struct {
	Field string `json:"field,omitempty"`
	Msg   string `json:"msg"`
}
