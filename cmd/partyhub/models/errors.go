package models

import "errors"

// Domain errors returned by the service layer. Handlers map them to HTTP responses.
var (
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrNotStarted          = errors.New("gift exchange not started")
	ErrAlreadyCompleted    = errors.New("exchange already completed")
	ErrInvalidState        = errors.New("invalid exchange status")
	ErrNoCandidates        = errors.New("no other users available")
	ErrGenerationExhausted = errors.New("unable to generate a unique value")
	ErrAlreadyVoted        = errors.New("already voted for this agenda")

	ErrUserNotFound   = errors.New("user not found")
	ErrAgendaNotFound = errors.New("agenda not found")
	ErrEventNotFound  = errors.New("event not found")
)
