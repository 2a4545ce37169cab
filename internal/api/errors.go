package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any StatusError carrying a 404
var ErrNotFound = errors.New("not found")

// AuthenticationError is returned when the login endpoint rejects the credentials
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return "authentication failed: " + e.Message
}

// SessionExpiredError is returned when a protected endpoint answers 401.
// The session is not demoted automatically; callers decide what to do.
type SessionExpiredError struct {
	Path string
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session rejected by server on %s", e.Path)
}

// NetworkError wraps transport failures where no response was received
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is any other non-2xx response
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: API error: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: API error: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
