package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/cmd/partyhub/service"
	"github.com/staffparty/partyhub/common/apperrors"
)

const jsonPatchContentType = "application/json-patch+json"

// maxPatchBytes bounds PATCH bodies
const maxPatchBytes = 64 << 10

// Admin manages agendas and events and reports on participants
type Admin interface {
	ListAgendas(ctx context.Context) ([]*models.Agenda, error)
	GetAgenda(ctx context.Context, id int64) (*models.Agenda, error)
	CreateAgenda(ctx context.Context, in models.AgendaInput) (*models.Agenda, error)
	PatchAgenda(ctx context.Context, id int64, kind service.PatchKind, patch []byte) (*models.Agenda, error)
	DeleteAgenda(ctx context.Context, id int64) error
	ListEvents(ctx context.Context, q models.EventQuery) ([]*models.Event, error)
	CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, q models.UserQuery) (*service.UserListing, error)
	UserVotes(ctx context.Context, userID int64) (*service.UserVotes, error)
}

// AdminHandler serves the admin API
type AdminHandler struct {
	admin Admin
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(c *container.Container) *AdminHandler {
	return newAdminHandler(c.AdminService)
}

func newAdminHandler(admin Admin) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListAgendas lists agendas with their events
// GET /api/admin/agendas
func (h *AdminHandler) ListAgendas(c echo.Context) error {
	agendas, err := h.admin.ListAgendas(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agendas)
}

// GetAgenda retrieves one agenda
// GET /api/admin/agendas/:id
func (h *AdminHandler) GetAgenda(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	agenda, err := h.admin.GetAgenda(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, agenda)
}

// CreateAgenda creates an agenda
// POST /api/admin/agendas
func (h *AdminHandler) CreateAgenda(c echo.Context) error {
	var in models.AgendaInput
	if err := c.Bind(&in); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}

	agenda, err := h.admin.CreateAgenda(c.Request().Context(), in)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, agenda)
}

// PatchAgenda applies a merge patch, or a JSON Patch when the request
// is sent as application/json-patch+json
// PATCH /api/admin/agendas/:id
func (h *AdminHandler) PatchAgenda(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPatchBytes))
	if err != nil {
		return apperrors.ValidationError("Invalid request body")
	}

	kind := service.MergePatch
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), jsonPatchContentType) {
		kind = service.JSONPatch
	}

	agenda, err := h.admin.PatchAgenda(c.Request().Context(), id, kind, body)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, agenda)
}

// DeleteAgenda removes an agenda with its events and votes
// DELETE /api/admin/agendas/:id
func (h *AdminHandler) DeleteAgenda(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.admin.DeleteAgenda(c.Request().Context(), id); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ListEvents supports ?agendaId=<id> and ?filter=<CEL expression>
// GET /api/admin/events
func (h *AdminHandler) ListEvents(c echo.Context) error {
	q := models.EventQuery{Filter: c.QueryParam("filter")}
	if raw := c.QueryParam("agendaId"); raw != "" {
		agendaID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.ValidationError("agendaId must be a number")
		}
		q.AgendaID = &agendaID
	}

	events, err := h.admin.ListEvents(c.Request().Context(), q)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, events)
}

// CreateEvent adds an event to an existing agenda
// POST /api/admin/events
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var in models.EventInput
	if err := c.Bind(&in); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}

	event, err := h.admin.CreateEvent(c.Request().Context(), in)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, event)
}

// DeleteEvent removes an event
// DELETE /api/admin/events/:id
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.admin.DeleteEvent(c.Request().Context(), id); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ListUsers supports ?search= and ?limit= (default 20, max 100)
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c echo.Context) error {
	q := models.UserQuery{Search: c.QueryParam("search")}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.ValidationError("limit must be a number")
		}
		q.Limit = limit
	}

	listing, err := h.admin.ListUsers(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

// UserVotes returns a participant with their votes
// GET /api/admin/users/:id/votes
func (h *AdminHandler) UserVotes(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	result, err := h.admin.UserVotes(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("id must be a positive number").WithContext("id", c.Param("id"))
	}
	return id, nil
}
