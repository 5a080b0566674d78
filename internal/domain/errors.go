package domain

import (
	"errors"
	"strings"
)

// Sentinel errors shared by repositories and services. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")

	// ErrDuplicate is returned by repositories when a unique constraint rejects a row.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced is returned by repositories when a row is still referenced by another table.
	ErrReferenced = errors.New("record is still referenced")
)

// Conflict error codes carried in 409 responses.
const (
	ConflictCodeEvent                 = "EVENT_CONFLICT"
	ConflictCodeDuplicateAttendee     = "DUPLICATE_PARTICIPANT"
	ConflictCodeDuplicateResourceType = "DUPLICATE_RESOURCE_TYPE"
	ConflictCodeResourceInUse         = "RESOURCE_IN_USE"
	ConflictCodeEventReferenced       = "EVENT_REFERENCED"
	ConflictCodeConcurrentUpdate      = "CONCURRENT_UPDATE"
)

// ValidationError lists every problem found in a request. It matches ErrInvalidInput.
type ValidationError struct {
	Problems []string
}

// NewValidationError returns nil when problems is empty.
func NewValidationError(problems ...string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConflictError is returned by command handlers instead of writing. It matches ErrConflict.
type ConflictError struct {
	Code      string
	Message   string
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewEventConflict wraps a non-empty detector result.
func NewEventConflict(conflicts []Conflict) *ConflictError {
	return &ConflictError{
		Code:      ConflictCodeEvent,
		Message:   "event conflicts with existing bookings",
		Conflicts: conflicts,
	}
}
