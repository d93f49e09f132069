// Package repository defines the storage contract used by the booking
// coordinators and its MySQL implementation.  The sentinel errors below
// are shared by every Store implementation so that higher layers can
// tell failure scenarios apart with errors.Is.  ErrForbidden indicates
// that the caller does not own the resource, ErrConflict that an
// operation cannot proceed because of existing state, and
// ErrInsufficientInventory that a guarded ledger increment found fewer
// tickets left than requested.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed
// because of conflicting state. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEventNotFound is returned when no event exists for an ID.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when no booking exists for an ID.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound is returned when no account exists for an ID.
var ErrUserNotFound = errors.New("user not found")

// ErrTicketTypeNotFound is returned when a ledger row cannot be found.
var ErrTicketTypeNotFound = errors.New("ticket type not found")

// ErrInsufficientInventory is returned by IncrementSold when the guard
// sold + qty <= quantity does not hold.
var ErrInsufficientInventory = errors.New("insufficient tickets available")

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
    return errors.Is(err, ErrEventNotFound) ||
        errors.Is(err, ErrBookingNotFound) ||
        errors.Is(err, ErrUserNotFound) ||
        errors.Is(err, ErrTicketTypeNotFound)
}
