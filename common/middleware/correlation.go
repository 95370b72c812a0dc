package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/common/logger"
)

// CorrelationHeader carries the request correlation id in and out
const CorrelationHeader = "X-Correlation-ID"

// Correlation attaches a correlation id to the request context so every log
// line written for the request carries it. Incoming ids are reused.
func Correlation() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := req.Header.Get(CorrelationHeader)
			if id == "" {
				id = logger.NewCorrelationID()
			}

			c.SetRequest(req.WithContext(logger.WithCorrelationID(req.Context(), id)))
			c.Response().Header().Set(CorrelationHeader, id)
			c.Set("correlation_id", id)

			return next(c)
		}
	}
}
