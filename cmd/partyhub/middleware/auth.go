package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/apperrors"
	"github.com/staffparty/partyhub/common/logger"
)

// ContextKey names values stored on the echo context
type ContextKey string

const (
	// UserKey holds the resolved *models.User
	UserKey ContextKey = "user"
	// UserIDKey holds the user id as int64 for rate limiting and error logs
	UserIDKey ContextKey = "user_id"

	// AdminTokenHeader carries the shared admin secret
	AdminTokenHeader = "X-Admin-Token"
)

// SessionResolver maps a session token to its participant
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// Session resolves the caller from the session cookie or an
// "Authorization: Bearer <token>" header. Requests without a valid
// session continue anonymously.
func Session(resolver SessionResolver, cookieName string, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c, cookieName)
			if token == "" {
				return next(c)
			}

			user, err := resolver.Resolve(c.Request().Context(), token)
			switch {
			case errors.Is(err, models.ErrUserNotFound):
				return next(c)
			case err != nil:
				log.WithContext(c.Request().Context()).Warn("session lookup failed", "error", err)
				return apperrors.InternalError("failed to resolve session", err)
			}

			c.Set(string(UserKey), user)
			c.Set(string(UserIDKey), user.ID)
			return next(c)
		}
	}
}

// RequireUser rejects requests without a resolved session
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetUser(c) == nil {
				return apperrors.UnauthorizedError("Not authenticated")
			}
			return next(c)
		}
	}
}

// AdminAuth requires the X-Admin-Token header to match token.
// An empty token disables the admin API.
func AdminAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(AdminTokenHeader)
			if provided == "" {
				return apperrors.UnauthorizedError("Admin token required")
			}
			if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				return apperrors.ForbiddenError("Invalid admin token")
			}
			return next(c)
		}
	}
}

// SessionToken returns the caller's session token, preferring the cookie
func SessionToken(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetUser returns the resolved participant, or nil for anonymous requests
func GetUser(c echo.Context) *models.User {
	user, _ := c.Get(string(UserKey)).(*models.User)
	return user
}
