package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loanledger/internal/usecase/eligibility"
	"loanledger/internal/usecase/loan"
	"loanledger/internal/usecase/repayment"
)

type LoanHandler struct {
	loans       *loan.Usecase
	eligibility *eligibility.Usecase
	payments    *repayment.Usecase
	log         *zap.Logger
}

func NewLoanHandler(loans *loan.Usecase, elig *eligibility.Usecase, payments *repayment.Usecase, log *zap.Logger) *LoanHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoanHandler{loans: loans, eligibility: elig, payments: payments, log: log}
}

type applyLoanReq struct {
	Amount     decimal.Decimal `json:"amount"      validate:"required,gt=0,dec2"`
	TermMonths int             `json:"term_months" validate:"required,gt=0"`
	Purpose    string          `json:"purpose"     validate:"required,max=255"`
	LoanType   string          `json:"loan_type"   validate:"max=32"`
}

type paymentReq struct {
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0,dec2"`
	Method      string          `json:"method"      validate:"required,max=32"`
	Description string          `json:"description" validate:"max=255"`
}

func (h *LoanHandler) Eligibility(c echo.Context) error {
	d, err := h.eligibility.Details(c.Request().Context(), userID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *LoanHandler) Apply(c echo.Context) error {
	var req applyLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.loans.Apply(c.Request().Context(), loan.ApplyInput{
		UserID:     userID(c),
		Amount:     req.Amount,
		TermMonths: req.TermMonths,
		Purpose:    req.Purpose,
		LoanType:   req.LoanType,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) List(c echo.Context) error {
	out, err := h.loans.ListByUser(c.Request().Context(), userID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Get(c echo.Context) error {
	dto, err := h.loans.Get(c.Request().Context(), userID(c), c.Param("loan_number"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	out, err := h.payments.Schedule(c.Request().Context(), userID(c), c.Param("loan_number"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Pay(c echo.Context) error {
	var req paymentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	out, err := h.payments.MakePayment(c.Request().Context(), repayment.PaymentInput{
		UserID:      userID(c),
		LoanNumber:  c.Param("loan_number"),
		Amount:      req.Amount,
		Method:      req.Method,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) PayInstallment(c echo.Context) error {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		return badRequest(c, "invalid installment number")
	}
	var req paymentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	out, err := h.payments.PayInstallment(c.Request().Context(), repayment.InstallmentPaymentInput{
		PaymentInput: repayment.PaymentInput{
			UserID:      userID(c),
			LoanNumber:  c.Param("loan_number"),
			Amount:      req.Amount,
			Method:      req.Method,
			Description: req.Description,
		},
		InstallmentNumber: number,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
