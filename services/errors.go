package services

import "errors"

// Error kinds. Every specific error below wraps exactly one kind, so callers
// can branch on either the kind or the specific error with errors.Is.
var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("operation not allowed for the current user")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrTournamentNotFound   = newError(ErrNotFound, "tournament not found")
	ErrPlayerNotFound       = newError(ErrNotFound, "player not found")
	ErrRegistrationNotFound = newError(ErrNotFound, "registration not found")

	ErrRegistrationNotOpen        = newError(ErrInvalidState, "registration not open")
	ErrTournamentFull             = newError(ErrInvalidState, "tournament full")
	ErrAlreadyRegistered          = newError(ErrInvalidState, "already registered")
	ErrNoConfirmedRegistrations   = newError(ErrInvalidState, "no confirmed registrations")
	ErrStatusTransitionNotAllowed = newError(ErrInvalidState, "status transition not allowed")

	ErrTournamentNameRequired     = newError(ErrValidation, "tournament name is required")
	ErrTournamentInvalidDateRange = newError(ErrValidation, "tournament end date must not be before start date")
	ErrTournamentInvalidRegDates  = newError(ErrValidation, "registration end must not be before registration start")
	ErrTournamentInvalidCapacity  = newError(ErrValidation, "tournament max participants must be positive")
	ErrTournamentInvalidAmount    = newError(ErrValidation, "monetary amounts must not be negative")
	ErrTournamentInvalidType      = newError(ErrValidation, "invalid tournament type")
	ErrTournamentInvalidGender    = newError(ErrValidation, "invalid gender category")
	ErrTournamentInvalidStatus    = newError(ErrValidation, "invalid tournament status provided")
	ErrRegistrationInvalidStatus  = newError(ErrValidation, "invalid registration status provided")
	ErrPlayerIDRequired           = newError(ErrValidation, "player id is required")
	ErrInvalidPaymentAmount       = newError(ErrValidation, "payment amount must not be negative")

	ErrConcurrentUpdate = newError(ErrConflict, "tournament is being modified concurrently, retry the request")
)
