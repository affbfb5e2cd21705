package aegis

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Use errors.Is() on the error returned by Client methods.
var (
	ErrInvalidRequest = errors.New("aegis: invalid request")
	ErrRateLimited    = errors.New("aegis: rate limited")
	ErrUnauthorized   = errors.New("aegis: upstream authentication failed")
	ErrInternal       = errors.New("aegis: internal error")
)

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aegis: HTTP %d: %s", e.StatusCode, e.Message)
}

// Is matches the sentinel for the status class.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInvalidRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrInternal:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}
