package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/handlers"
	"github.com/staffparty/partyhub/cmd/partyhub/middleware"
)

// RegisterAdminRoutes registers the token-protected admin API
func RegisterAdminRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAdminHandler(c)
	exchanges := handlers.NewGiftExchangeHandler(c)

	admin := e.Group("/api/admin", middleware.AdminAuth(c.Components.Config.Admin.Token))

	agendas := admin.Group("/agendas")
	{
		agendas.GET("", h.ListAgendas)         // GET /api/admin/agendas
		agendas.POST("", h.CreateAgenda)       // POST /api/admin/agendas
		agendas.GET("/:id", h.GetAgenda)       // GET /api/admin/agendas/3
		agendas.PATCH("/:id", h.PatchAgenda)   // PATCH /api/admin/agendas/3
		agendas.DELETE("/:id", h.DeleteAgenda) // DELETE /api/admin/agendas/3
	}

	events := admin.Group("/events")
	{
		events.GET("", h.ListEvents)         // GET /api/admin/events?agendaId=1&filter=event.votes>0
		events.POST("", h.CreateEvent)       // POST /api/admin/events
		events.DELETE("/:id", h.DeleteEvent) // DELETE /api/admin/events/12
	}

	users := admin.Group("/users")
	{
		users.GET("", h.ListUsers)           // GET /api/admin/users?search=ko&limit=20
		users.GET("/:id/votes", h.UserVotes) // GET /api/admin/users/7/votes
	}

	admin.GET("/exchanges", exchanges.ListExchanges) // GET /api/admin/exchanges
}
