package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"loanledger/internal/domain/apperr"
	"loanledger/internal/infrastructure/logger"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:        http.StatusUnprocessableEntity,
	apperr.KindIneligible:        http.StatusForbidden,
	apperr.KindInsufficientFunds: http.StatusPaymentRequired,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindInvalidState:      http.StatusConflict,
	apperr.KindFeatureDisabled:   http.StatusForbidden,
}

// StatusFor maps an error from the usecases to its HTTP status.
func StatusFor(err error) int {
	if code, ok := kindStatus[apperr.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// writeError renders err. Errors outside the taxonomy are logged and hidden.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		logger.For(c.Request().Context(), log).Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}

	resp := ErrorResponse{Error: err.Error()}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Field != "" {
		resp.Error = "validation failed"
		resp.Details = []FieldError{{Field: ae.Field, Message: ae.Message}}
	}
	return c.JSON(code, resp)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bindValid binds the JSON body into req and validates it. When it reports false the
// error response has already been written and err is what the handler returns.
func bindValid(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
