package application

import (
	"errors"
	"fmt"

	"github.com/example/training-crm/internal/persistence"
	"github.com/example/training-crm/internal/scheduler"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrGroupNotFound is returned when a recurrence group id matches no sessions.
	ErrGroupNotFound = errors.New("application: recurrence group not found")
	// ErrNoInstancesGenerated is returned when a recurrence rule expands to
	// zero sessions; nothing is created silently.
	ErrNoInstancesGenerated = errors.New("application: recurrence produced no instances")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError reports that a candidate window overlaps existing active
// sessions. It carries the full conflict list and best-effort alternative
// slots so the caller can decide how to proceed.
type ConflictError struct {
	Conflicts   []scheduler.Conflict
	Suggestions []scheduler.Slot
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scheduling conflict with %d existing session(s)", len(e.Conflicts))
}

// mapRepoError translates persistence sentinels into application errors so
// handlers never see storage internals.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("time", "end time must be after start time")
		return vErr
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("reference", "related record does not exist")
		return vErr
	default:
		return err
	}
}
