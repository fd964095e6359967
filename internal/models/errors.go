package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Conflict errors. These are expected, user-facing outcomes: the HTTP layer
// maps them to 409 responses.
var (
	// ErrDuplicateBooking: a user tried to book the same event twice.
	ErrDuplicateBooking = errors.New("event already booked by this user")
	// ErrCapacityExceeded: the requested tickets exceed the event's free capacity.
	ErrCapacityExceeded = errors.New("not enough tickets available")
	// ErrBookingLimitExceeded: the requested tickets exceed the per-booking cap.
	ErrBookingLimitExceeded = errors.New("tickets exceed the per-booking limit")
	// ErrLastOwner: the operation would leave an organization without owners.
	ErrLastOwner = errors.New("organization must keep at least one owner")
	// ErrUserHasOrganizations: a user who still owns organizations cannot be hidden.
	ErrUserHasOrganizations = errors.New("user still owns organizations")
	// ErrNameTaken: an organization name (and therefore its slug) is already in use.
	ErrNameTaken = errors.New("organization name already taken")
	// ErrVersionConflict: an optimistic-concurrency write lost the race and
	// should be retried from a fresh read.
	ErrVersionConflict = errors.New("concurrent modification detected")
)

// ErrInventoryInvariant indicates a bug: restoring tickets would push free
// capacity above the maximum. It is logged as a defect and surfaced opaquely.
var ErrInventoryInvariant = errors.New("ticket inventory invariant violated")

// ValidationError reports input that passed transport-level binding but
// violates a domain rule (past event date, capacity below booked tickets).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidation creates a ValidationError.
func NewValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a missing entity by resource name and id.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id %s", e.Resource, e.ID)
}

// NewNotFound creates a NotFoundError for the given resource and id.
func NewNotFound(resource string, id uuid.UUID) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is one of the expected conflict outcomes.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateBooking) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrBookingLimitExceeded) ||
		errors.Is(err, ErrLastOwner) ||
		errors.Is(err, ErrNameTaken) ||
		errors.Is(err, ErrUserHasOrganizations) ||
		errors.Is(err, ErrVersionConflict)
}
