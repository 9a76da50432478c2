package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	"loanledger/internal/infrastructure/logger"
)

const (
	HeaderUserID  = "Ax-User-Id"
	HeaderAdminID = "Ax-Admin-Id"

	ctxUserID  = "user_id"
	ctxAdminID = "admin_id"
)

// RequireUser admits requests carrying a valid Ax-User-Id and exposes it to handlers
// and to the request logger.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return requireID(HeaderUserID, ctxUserID, next)
}

// RequireAdmin does the same for Ax-Admin-Id on the admin routes.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return requireID(HeaderAdminID, ctxAdminID, next)
}

func requireID(header, key string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := strings.TrimSpace(c.Request().Header.Get(header))
		if v == "" {
			return badRequest(c, "missing "+header)
		}
		if !reHex32.MatchString(v) {
			return badRequest(c, "invalid "+header)
		}
		c.Set(key, v)
		req := c.Request()
		c.SetRequest(req.WithContext(logger.WithUserID(req.Context(), v)))
		return next(c)
	}
}

func userID(c echo.Context) string {
	v, _ := c.Get(ctxUserID).(string)
	return v
}

func adminID(c echo.Context) string {
	v, _ := c.Get(ctxAdminID).(string)
	return v
}
