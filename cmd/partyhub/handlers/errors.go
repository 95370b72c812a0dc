package handlers

import (
	"errors"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/apperrors"
)

// domainError translates service sentinels into structured HTTP errors.
// Errors that are already structured, or unknown, pass through unchanged.
func domainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrUnauthenticated):
		return apperrors.UnauthorizedError("Not authenticated")
	case errors.Is(err, models.ErrNotStarted):
		return apperrors.RejectedError("Gift exchange not started", err)
	case errors.Is(err, models.ErrAlreadyCompleted):
		return apperrors.RejectedError("Exchange already completed", err)
	case errors.Is(err, models.ErrInvalidState):
		return apperrors.RejectedError("Invalid exchange status", err)
	case errors.Is(err, models.ErrNoCandidates):
		return apperrors.RejectedError("No other users available", err)
	case errors.Is(err, models.ErrAlreadyVoted):
		return apperrors.RejectedError("You have already voted for this agenda", err)
	case errors.Is(err, models.ErrGenerationExhausted):
		return apperrors.InternalError("Unable to generate unique player number. Please try again.", err)
	case errors.Is(err, models.ErrUserNotFound):
		return apperrors.NotFoundError("User not found")
	case errors.Is(err, models.ErrAgendaNotFound):
		return apperrors.NotFoundError("Agenda not found")
	case errors.Is(err, models.ErrEventNotFound):
		return apperrors.NotFoundError("Event not found")
	}
	return err
}
