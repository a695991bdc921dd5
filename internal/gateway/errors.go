package gateway

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned by signed endpoints when no API key pair
// is configured.
var ErrMissingCredentials = errors.New("binance API key and secret are not configured")

// APIError is a handled exchange rejection: an HTTP status of 400 or above
// with the exchange's {code,msg} body.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsAPIError returns true if err wraps an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// TransportError covers dial failures, timeouts and undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError returns true if err wraps a *TransportError.
func IsTransportError(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// FormatError renders any gateway error for a tool response.
func FormatError(err error) string {
	if err == nil {
		return "unknown error"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
