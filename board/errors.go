package board

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the actor is missing or lacks permission.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition means the requested state change is not in the
	// transition table for the task's current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a field value that failed validation before any
// backend call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BackendError reports a non-2xx or malformed response from a collaborator.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: status %d", e.Status)
	}
	return fmt.Sprintf("backend error: %s (status %d)", e.Message, e.Status)
}
