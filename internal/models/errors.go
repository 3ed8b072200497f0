package models

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before any mutation happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError signals that a referenced post or asset id is unknown.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ExternalServiceError wraps any failure coming back from a remote
// boundary (transform, caption, publish, connection status). It is
// recorded as data, never allowed to crash an operation.
type ExternalServiceError struct {
	Service string
	Reason  string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Reason)
}

// InsufficientAssetsError is the auto scheduler precondition failure.
// Nothing has been mutated when it is returned.
type InsufficientAssetsError struct {
	Available int
	Required  int
}

func (e *InsufficientAssetsError) Error() string {
	return fmt.Sprintf("need %d unused assets, have %d", e.Required, e.Available)
}

// ErrPublishInProgress guards deletes while an attempt is in flight.
var ErrPublishInProgress = errors.New("publish attempt in progress")
