package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSessionExpired    = errors.New("session expired")
	ErrMalformedResponse = errors.New("malformed response")
	ErrClosed            = errors.New("pipeline closed")

	// errNoSession means there is nothing stored to refresh.
	errNoSession = errors.New("no session to refresh")
	// errMissingRefreshToken ends a session that has an access token but no
	// way to renew it.
	errMissingRefreshToken = errors.New("session has no refresh token")
)

// StatusError is a non-2xx response passed through to the caller untouched.
type StatusError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets callers match 401/403 responses with errors.Is(err, ErrUnauthorized).
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// StatusCode extracts the HTTP status from err, or 0 if err is not a
// *StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
