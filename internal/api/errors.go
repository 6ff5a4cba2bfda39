package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Client errors.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUnauthorized       = errors.New("session rejected by server")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrBadRequest         = errors.New("request rejected")
	ErrUnavailable        = errors.New("incident api unavailable")
)

// StatusError is a non-2xx answer from the incident API.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

// Unwrap maps well-known codes onto sentinel errors.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Code == http.StatusNotFound:
		return ErrNotFound
	case e.Code == http.StatusBadRequest || e.Code == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case e.IsServerError():
		return ErrUnavailable
	}
	return nil
}

// IsServerError reports whether the collaborator failed on its side.
func (e *StatusError) IsServerError() bool {
	return e.Code >= http.StatusInternalServerError
}

// TransportError means no HTTP answer was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every transport failure match ErrUnavailable.
func (e *TransportError) Is(target error) bool {
	return target == ErrUnavailable
}

// IsUnavailable reports whether err is a transport failure or a 5xx answer.
// Only these errors qualify for local fallback.
func IsUnavailable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.IsServerError()
	}
	return false
}
