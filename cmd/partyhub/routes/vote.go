package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/handlers"
	"github.com/staffparty/partyhub/cmd/partyhub/middleware"
	commonmw "github.com/staffparty/partyhub/common/middleware"
	"github.com/staffparty/partyhub/common/ratelimit"
)

// RegisterVoteRoutes registers the public agenda listing and participant votes
func RegisterVoteRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewVoteHandler(c)

	limit := commonmw.RateLimit(c.RateLimiter, ratelimit.ClassVote, commonmw.ByUserID)

	e.GET("/api/agendas", h.ListAgendas) // GET /api/agendas

	votes := e.Group("/api/votes", withSession(c), middleware.RequireUser())
	{
		votes.GET("", h.ListVotes)          // GET /api/votes
		votes.POST("", h.SubmitVote, limit) // POST /api/votes
	}
}
