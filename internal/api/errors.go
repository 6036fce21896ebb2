package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthExpired matches (via errors.Is) any APIError with status 401: the bearer token was rejected.
var ErrAuthExpired = errors.New("api: authentication expired")

// NetworkError is returned when no HTTP response was received (dial failure, timeout, canceled context).
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is returned for a non-2xx response. Detail is the body's "detail" field when it is a string.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is reports ErrAuthExpired for 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrAuthExpired && e.Status == http.StatusUnauthorized
}

// DetailOf returns the server-provided detail of err when it is an APIError carrying one, else fallback.
func DetailOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
