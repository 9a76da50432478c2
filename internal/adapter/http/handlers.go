package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Handlers groups everything Register mounts.
type Handlers struct {
	Health   *Handler
	Loans    *LoanHandler
	Approval *ApprovalHandler
	Shares   *ShareHandler
}

// Register mounts the routes on e. idem guards every mutating route.
func Register(e *echo.Echo, h Handlers, idem echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	loans := e.Group("/loans", RequireUser)
	loans.GET("/eligibility", h.Loans.Eligibility)
	loans.GET("", h.Loans.List)
	loans.POST("", h.Loans.Apply, idem)
	loans.GET("/:loan_number", h.Loans.Get)
	loans.GET("/:loan_number/schedule", h.Loans.Schedule)
	loans.POST("/:loan_number/payments", h.Loans.Pay, idem)
	loans.POST("/:loan_number/installments/:number/pay", h.Loans.PayInstallment, idem)

	shares := e.Group("/shares", RequireUser)
	shares.GET("/portfolio", h.Shares.Portfolio)
	shares.POST("/buy", h.Shares.Buy, idem)
	shares.POST("/sell", h.Shares.Sell, idem)
	shares.POST("/sales/:transaction_id/cancel", h.Shares.Cancel, idem)

	admin := e.Group("/admin", RequireAdmin)
	admin.POST("/loans/:loan_number/approve", h.Approval.Approve, idem)
	admin.POST("/loans/:loan_number/reject", h.Approval.Reject, idem)
	admin.POST("/loans/:loan_number/disburse", h.Approval.Disburse, idem)
	admin.POST("/loans/:loan_number/default", h.Approval.Default, idem)
	admin.POST("/shares", h.Shares.Issue, idem)
	admin.POST("/shares/sales/:transaction_id/approve", h.Shares.ApproveSale, idem)
	admin.POST("/shares/sales/:transaction_id/reject", h.Shares.RejectSale, idem)
}
