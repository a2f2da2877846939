package client

import (
	"errors"
	"fmt"
)

// AuthenticationError covers 401/403 responses.
type AuthenticationError struct {
	Message       string
	InteractionID string
}

func (e *AuthenticationError) Error() string { return e.Message }

// NotFoundError maps 404 responses; during availability checks it means
// "not yet available" rather than a hard failure.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// RateLimitError maps 429 responses and carries the Retry-After hint.
type RateLimitError struct {
	Message    string
	RetryAfter int
}

func (e *RateLimitError) Error() string { return e.Message }

// NetworkError maps 5xx responses.
type NetworkError struct {
	StatusCode int
	Message    string
}

func (e *NetworkError) Error() string { return e.Message }

// ValidationError covers invalid parameters and other 4xx responses.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
