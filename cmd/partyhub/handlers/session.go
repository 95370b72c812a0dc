package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/middleware"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/apperrors"
	"github.com/staffparty/partyhub/common/config"
)

// Registrar creates participants
type Registrar interface {
	Register(ctx context.Context, name string, department *string) (*models.User, error)
}

// SessionHandler handles participant registration and session lookup
type SessionHandler struct {
	sessions Registrar
	cfg      config.SessionConfig
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(c *container.Container) *SessionHandler {
	return newSessionHandler(c.SessionService, c.Components.Config.Session)
}

func newSessionHandler(sessions Registrar, cfg config.SessionConfig) *SessionHandler {
	return &SessionHandler{sessions: sessions, cfg: cfg}
}

type sessionResponse struct {
	User *models.PublicUser `json:"user"`
}

// GetSession returns the caller, or {"user": null} without a valid session
// GET /api/session
func (h *SessionHandler) GetSession(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.JSON(http.StatusOK, sessionResponse{})
	}
	public := user.Public()
	return c.JSON(http.StatusOK, sessionResponse{User: &public})
}

// Register creates a participant and sets the session cookie
// POST /api/session
func (h *SessionHandler) Register(c echo.Context) error {
	var req struct {
		Name       string  `json:"name"`
		Department *string `json:"department"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}

	user, err := h.sessions.Register(c.Request().Context(), req.Name, req.Department)
	if err != nil {
		return domainError(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    user.SessionToken,
		Path:     "/",
		MaxAge:   int(h.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	public := user.Public()
	return c.JSON(http.StatusOK, sessionResponse{User: &public})
}
