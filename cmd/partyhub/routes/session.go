package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/handlers"
	"github.com/staffparty/partyhub/cmd/partyhub/middleware"
	commonmw "github.com/staffparty/partyhub/common/middleware"
	"github.com/staffparty/partyhub/common/ratelimit"
)

// RegisterSessionRoutes registers participant registration and session lookup
func RegisterSessionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewSessionHandler(c)

	limit := commonmw.RateLimit(c.RateLimiter, ratelimit.ClassRegister, commonmw.ByIP)

	session := e.Group("/api/session", withSession(c))
	{
		session.GET("", h.GetSession)       // GET /api/session
		session.POST("", h.Register, limit) // POST /api/session
	}
}

// withSession resolves the session cookie (or bearer token) into the request.
// Requests without one continue anonymously.
func withSession(c *container.Container) echo.MiddlewareFunc {
	return middleware.Session(
		c.SessionService,
		c.Components.Config.Session.CookieName,
		c.Components.Logger,
	)
}
