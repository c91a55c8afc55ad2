package adapter

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrRequestTimeout      = errors.New("request timeout")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrUnexpectedStatus    = errors.New("unexpected response status")

	ErrEmptyAddress   = errors.New("empty address")
	ErrInvalidAddress = errors.New("address must include host and scheme")
	ErrMalformedBody  = errors.New("malformed response body")
)

// TransientNetworkError marks a failure that is expected to go away on its
// own: the server could not be reached, timed out, was overloaded or
// answered with a 5xx. The sync engine retries these with backoff.
type TransientNetworkError struct {
	// StatusCode is the HTTP status, or zero when no response was received.
	StatusCode int
	Err        error
}

func (e *TransientNetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transient network error: %v", e.Err)
	}
	return fmt.Sprintf("transient network error (http %d): %v", e.StatusCode, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err carries a TransientNetworkError.
func IsTransient(err error) bool {
	var tErr *TransientNetworkError
	return errors.As(err, &tErr)
}
