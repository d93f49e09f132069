package service

import (
	"errors"

	"github.com/iliyamo/eventify/internal/repository"
)

// Validation errors
var (
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrTicketTypeRequired  = errors.New("ticket type is required")
	ErrInvalidStatusValue  = errors.New("invalid booking or payment status")
	ErrNothingToUpdate     = errors.New("bookingStatus or paymentStatus is required")
	ErrInvalidOutcome      = errors.New("outcome must be success or failure")
	ErrInvalidEvent        = errors.New("invalid event")
	ErrInsufficientTickets = repository.ErrInsufficientInventory
)

// Not found errors
var (
	ErrEventNotBookable  = errors.New("event not found or not open for booking")
	ErrInvalidTicketType = errors.New("ticket type not found for this event")
)

// Conflict errors
var (
	ErrInvalidTransition = errors.New("booking status transition not allowed")
	ErrAlreadyCancelled  = errors.New("booking is already cancelled")
	ErrNotAwaitingPay    = errors.New("booking is not awaiting payment")
	ErrEventNotDraft     = errors.New("only draft events can be published")
)

// IsValidationError reports whether err is caused by bad input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrTicketTypeRequired) ||
		errors.Is(err, ErrInvalidStatusValue) ||
		errors.Is(err, ErrNothingToUpdate) ||
		errors.Is(err, ErrInvalidOutcome) ||
		errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrInsufficientTickets)
}

// IsNotFoundError reports whether err means the target does not exist
// or is not visible to the caller.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotBookable) ||
		errors.Is(err, ErrInvalidTicketType) ||
		repository.IsNotFound(err)
}

// IsConflictError reports whether err is caused by the current state of
// the booking or by a datastore conflict that outlived its retries.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadyCancelled) ||
		errors.Is(err, ErrNotAwaitingPay) ||
		errors.Is(err, ErrEventNotDraft) ||
		errors.Is(err, repository.ErrConflict)
}

// IsForbiddenError reports whether the caller may not act on the target.
func IsForbiddenError(err error) bool {
	return errors.Is(err, repository.ErrForbidden)
}
