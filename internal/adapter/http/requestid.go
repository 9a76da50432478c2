package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"loanledger/internal/infrastructure/logger"
	"loanledger/pkg/id"
)

// RequestID keeps the caller's X-Request-Id or mints a 32-hex one, and carries it into
// the request context for logging.
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: id.NewID32,
		RequestIDHandler: func(c echo.Context, rid string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), rid)))
		},
	})
}
