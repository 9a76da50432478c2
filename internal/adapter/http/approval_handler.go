package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"loanledger/internal/usecase/approval"
	"loanledger/internal/usecase/loan"
)

type ApprovalHandler struct {
	uc  *approval.Usecase
	log *zap.Logger
}

func NewApprovalHandler(uc *approval.Usecase, log *zap.Logger) *ApprovalHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ApprovalHandler{uc: uc, log: log}
}

type reasonReq struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type disburseReq struct {
	Method      string `json:"method"      validate:"required,max=32"`
	Description string `json:"description" validate:"max=255"`
}

func (h *ApprovalHandler) respond(c echo.Context, dto *loan.LoanDTO, err error) error {
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Approve(c echo.Context) error {
	dto, err := h.uc.Approve(c.Request().Context(), approval.ApproveInput{
		LoanNumber: c.Param("loan_number"),
		AdminID:    adminID(c),
	})
	return h.respond(c, dto, err)
}

func (h *ApprovalHandler) Reject(c echo.Context) error {
	var req reasonReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), approval.RejectInput{
		LoanNumber: c.Param("loan_number"),
		AdminID:    adminID(c),
		Reason:     req.Reason,
	})
	return h.respond(c, dto, err)
}

func (h *ApprovalHandler) Disburse(c echo.Context) error {
	var req disburseReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Disburse(c.Request().Context(), approval.DisburseInput{
		LoanNumber:  c.Param("loan_number"),
		AdminID:     adminID(c),
		Method:      req.Method,
		Description: req.Description,
	})
	return h.respond(c, dto, err)
}

func (h *ApprovalHandler) Default(c echo.Context) error {
	var req reasonReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.MarkDefaulted(c.Request().Context(), approval.DefaultInput{
		LoanNumber: c.Param("loan_number"),
		AdminID:    adminID(c),
		Reason:     req.Reason,
	})
	return h.respond(c, dto, err)
}
