package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/middleware"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/apperrors"
)

// Voting lists agendas and records votes
type Voting interface {
	ListAgendas(ctx context.Context) ([]*models.Agenda, error)
	History(ctx context.Context, user *models.User) ([]models.VoteRef, error)
	Submit(ctx context.Context, user *models.User, agendaID, eventID int64) error
}

// VoteHandler serves the public agenda listing and participant votes
type VoteHandler struct {
	voting Voting
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(c *container.Container) *VoteHandler {
	return newVoteHandler(c.VotingService)
}

func newVoteHandler(voting Voting) *VoteHandler {
	return &VoteHandler{voting: voting}
}

// ListAgendas returns all agendas with events and vote counts
// GET /api/agendas
func (h *VoteHandler) ListAgendas(c echo.Context) error {
	agendas, err := h.voting.ListAgendas(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("Failed to fetch agendas", err)
	}
	return c.JSON(http.StatusOK, agendas)
}

// ListVotes returns the caller's voting history
// GET /api/votes
func (h *VoteHandler) ListVotes(c echo.Context) error {
	votes, err := h.voting.History(c.Request().Context(), middleware.GetUser(c))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"votes": votes})
}

// SubmitVote records one vote for the caller
// POST /api/votes
func (h *VoteHandler) SubmitVote(c echo.Context) error {
	var req struct {
		AgendaID int64 `json:"agendaId"`
		EventID  int64 `json:"eventId"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("eventId and agendaId are required")
	}

	err := h.voting.Submit(c.Request().Context(), middleware.GetUser(c), req.AgendaID, req.EventID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
