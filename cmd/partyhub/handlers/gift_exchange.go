package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/middleware"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/apperrors"
)

// Exchanges runs gift-exchange transitions
type Exchanges interface {
	Start(ctx context.Context, owner *models.User) (*models.Participant, error)
	Reassign(ctx context.Context, owner *models.User) (*models.Participant, error)
	Confirm(ctx context.Context, owner *models.User) error
	Status(ctx context.Context, owner *models.User) (*models.ExchangeView, error)
	Summary(ctx context.Context) (*models.ExchangeSummary, error)
}

// GiftExchangeHandler serves the gift-exchange flow
type GiftExchangeHandler struct {
	exchanges Exchanges
}

// NewGiftExchangeHandler creates a new gift exchange handler
func NewGiftExchangeHandler(c *container.Container) *GiftExchangeHandler {
	return newGiftExchangeHandler(c.GiftExchangeService)
}

func newGiftExchangeHandler(exchanges Exchanges) *GiftExchangeHandler {
	return &GiftExchangeHandler{exchanges: exchanges}
}

type targetResponse struct {
	TargetUser *models.Participant `json:"targetUser"`
}

// Start draws a gift target for the caller
// POST /api/gift-exchange/start
func (h *GiftExchangeHandler) Start(c echo.Context) error {
	target, err := h.exchanges.Start(c.Request().Context(), middleware.GetUser(c))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, targetResponse{TargetUser: target})
}

// Reassign draws a different gift target
// POST /api/gift-exchange/reassign
func (h *GiftExchangeHandler) Reassign(c echo.Context) error {
	target, err := h.exchanges.Reassign(c.Request().Context(), middleware.GetUser(c))
	if errors.Is(err, models.ErrAlreadyCompleted) {
		return apperrors.RejectedError("Cannot reassign after completion", err)
	}
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, targetResponse{TargetUser: target})
}

// Confirm freezes the caller's current target
// POST /api/gift-exchange/confirm
func (h *GiftExchangeHandler) Confirm(c echo.Context) error {
	if err := h.exchanges.Confirm(c.Request().Context(), middleware.GetUser(c)); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Status reports the caller's exchange
// GET /api/gift-exchange/status
func (h *GiftExchangeHandler) Status(c echo.Context) error {
	view, err := h.exchanges.Status(c.Request().Context(), middleware.GetUser(c))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// ListExchanges returns every pairing with counts
// GET /api/gift-exchange/admin/exchanges, GET /api/admin/exchanges
func (h *GiftExchangeHandler) ListExchanges(c echo.Context) error {
	summary, err := h.exchanges.Summary(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("Failed to fetch gift exchanges", err)
	}
	return c.JSON(http.StatusOK, summary)
}
