package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers unreachable endpoints, malformed responses and protocol faults.
	ErrTransport = errors.New("transport failure")
	// ErrInvalidLimit is returned when a harvest limit is not positive.
	ErrInvalidLimit = errors.New("harvest limit must be greater than zero")
	// ErrEmptyEndpoint is returned when no endpoint URL was supplied.
	ErrEmptyEndpoint = errors.New("endpoint url is empty")
	// ErrIdentityRequired means a mass harvest was requested before the identity was resolved.
	ErrIdentityRequired = errors.New("repository identity must be resolved first")
	// ErrConfirmationRequired means the limit is above the threshold and no confirmation was given.
	ErrConfirmationRequired = errors.New("repository identifier confirmation required")
	// ErrConfirmationMismatch means the confirmation did not match the repository identifier.
	ErrConfirmationMismatch = errors.New("repository identifier confirmation does not match")
	// ErrConfirmationUnavailable means the repository publishes no identifier to confirm against.
	ErrConfirmationUnavailable = errors.New("repository publishes no identifier to confirm against")
	// ErrNoSample is returned when a report is requested before any harvest.
	ErrNoSample = errors.New("no harvested sample")
)

// TransportError wraps any failure talking to a remote endpoint.
type TransportError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every TransportError match ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
