package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/common/ratelimit"
)

// SubjectFunc picks the counter a request is charged to.
// Returning ok=false skips the check for that request.
type SubjectFunc func(c echo.Context) (subject string, ok bool)

// Global charges every request to one shared counter
func Global(c echo.Context) (string, bool) { return "", true }

// ByIP charges the client IP
func ByIP(c echo.Context) (string, bool) {
	ip := c.RealIP()
	return ip, ip != ""
}

// ByUserID charges the participant resolved by the session middleware.
// Requests without a participant are not counted here; they fail auth later.
func ByUserID(c echo.Context) (string, bool) {
	id, ok := c.Get("user_id").(int64)
	if !ok || id == 0 {
		return "", false
	}
	return fmt.Sprintf("%d", id), true
}

// RateLimit checks class for every request. A nil checker disables the middleware.
// Limiter errors let the request through (fail open for availability).
func RateLimit(checker ratelimit.Checker, class ratelimit.Class, subject SubjectFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if checker == nil {
				return next(c)
			}

			key, ok := subject(c)
			if !ok {
				return next(c)
			}

			result, err := checker.Check(c.Request().Context(), class, key)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", result.RetryAfterSeconds))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   fmt.Sprintf("%s_rate_limit_exceeded", class),
					"message": "Too many requests. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window":              fmt.Sprintf("%d seconds", result.WindowSeconds),
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
