package domain

import "errors"

// Sentinel errors shared by services and repositories. Services wrap them with
// fmt.Errorf("%w: ...") so controllers can map them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrSoldOut            = errors.New("event is sold out")
	ErrPaymentFailed      = errors.New("payment verification failed")
	ErrTicketMismatch     = errors.New("ticket does not belong to this event")
	ErrTicketAlreadyUsed  = errors.New("ticket has already been used")
	ErrEventHasTickets    = errors.New("event has issued tickets")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
