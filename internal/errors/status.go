// Package errors defines the typed errors shared by the HTTP clients.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response from an upstream endpoint.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string // Leading part of the response body, if any
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// NewStatusError creates a StatusError.
func NewStatusError(statusCode int, url, body string) *StatusError {
	return &StatusError{StatusCode: statusCode, URL: url, Body: body}
}

// IsStatusError reports whether err is a StatusError (even when wrapped).
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return stdErrors.As(err, &statusErr)
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return stdErrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// IsTemporaryStatus reports whether err is a StatusError worth retrying.
func IsTemporaryStatus(err error) bool {
	var statusErr *StatusError
	return stdErrors.As(err, &statusErr) && statusErr.Temporary()
}
