package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/handlers"
	"github.com/staffparty/partyhub/cmd/partyhub/middleware"
	commonmw "github.com/staffparty/partyhub/common/middleware"
	"github.com/staffparty/partyhub/common/ratelimit"
)

// RegisterGiftExchangeRoutes registers the gift-exchange flow and its admin listing
func RegisterGiftExchangeRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewGiftExchangeHandler(c)

	limit := commonmw.RateLimit(c.RateLimiter, ratelimit.ClassExchange, commonmw.ByUserID)

	exchange := e.Group("/api/gift-exchange")

	participant := exchange.Group("", withSession(c), middleware.RequireUser())
	{
		participant.POST("/start", h.Start, limit)       // POST /api/gift-exchange/start
		participant.POST("/reassign", h.Reassign, limit) // POST /api/gift-exchange/reassign
		participant.POST("/confirm", h.Confirm, limit)   // POST /api/gift-exchange/confirm
		participant.GET("/status", h.Status)             // GET /api/gift-exchange/status
	}

	admin := exchange.Group("/admin", middleware.AdminAuth(c.Components.Config.Admin.Token))
	{
		admin.GET("/exchanges", h.ListExchanges) // GET /api/gift-exchange/admin/exchanges
	}
}
