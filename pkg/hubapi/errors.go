package hubapi

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the hub. The request reached the hub
// and was rejected; retrying without changing it is pointless.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hub API returned %d: %s", e.Status, e.Body)
}

// IsAPIError returns the APIError carried by err, if any.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// TransportError is a network-level failure: the request never produced an
// HTTP response. Callers may decide a retry is sensible.
type TransportError struct {
	err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hub API unreachable: %s", e.err)
}

func (e *TransportError) Unwrap() error {
	return e.err
}

// IsTransportError returns true if err represents a network-level failure.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
