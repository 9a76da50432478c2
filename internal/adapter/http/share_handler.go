package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loanledger/internal/domain/share"
	"loanledger/internal/usecase/shares"
)

type ShareHandler struct {
	uc  *shares.Usecase
	log *zap.Logger
}

func NewShareHandler(uc *shares.Usecase, log *zap.Logger) *ShareHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShareHandler{uc: uc, log: log}
}

type quantityReq struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type issueReq struct {
	Name            string          `json:"name"             validate:"required,max=100"`
	TotalShares     int64           `json:"total_shares"     validate:"required,gt=0"`
	PricePerShare   decimal.Decimal `json:"price_per_share"  validate:"required,gt=0,dec2"`
	MinimumPurchase int64           `json:"minimum_purchase" validate:"gte=0"`
	MaximumPurchase int64           `json:"maximum_purchase" validate:"gte=0"`
}

func (h *ShareHandler) respond(c echo.Context, code int, txn *share.Transaction, err error) error {
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(code, txn)
}

func (h *ShareHandler) Portfolio(c echo.Context) error {
	p, err := h.uc.Portfolio(c.Request().Context(), userID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ShareHandler) Buy(c echo.Context) error {
	var req quantityReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	txn, err := h.uc.Buy(c.Request().Context(), shares.BuyInput{UserID: userID(c), Quantity: req.Quantity})
	return h.respond(c, http.StatusCreated, txn, err)
}

func (h *ShareHandler) Sell(c echo.Context) error {
	var req quantityReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	txn, err := h.uc.Sell(c.Request().Context(), shares.SellInput{UserID: userID(c), Quantity: req.Quantity})
	return h.respond(c, http.StatusAccepted, txn, err)
}

func (h *ShareHandler) Cancel(c echo.Context) error {
	txn, err := h.uc.CancelSale(c.Request().Context(), shares.CancelInput{
		UserID:        userID(c),
		TransactionID: c.Param("transaction_id"),
	})
	return h.respond(c, http.StatusOK, txn, err)
}

func (h *ShareHandler) Issue(c echo.Context) error {
	var req issueReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	s, err := h.uc.IssueOffering(c.Request().Context(), shares.IssueInput{
		AdminID:         adminID(c),
		Name:            req.Name,
		TotalShares:     req.TotalShares,
		PricePerShare:   req.PricePerShare,
		MinimumPurchase: req.MinimumPurchase,
		MaximumPurchase: req.MaximumPurchase,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *ShareHandler) ApproveSale(c echo.Context) error {
	txn, err := h.uc.ApproveSale(c.Request().Context(), shares.ReviewInput{
		TransactionID: c.Param("transaction_id"),
		AdminID:       adminID(c),
	})
	return h.respond(c, http.StatusOK, txn, err)
}

func (h *ShareHandler) RejectSale(c echo.Context) error {
	var req reasonReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	txn, err := h.uc.RejectSale(c.Request().Context(), shares.ReviewInput{
		TransactionID: c.Param("transaction_id"),
		AdminID:       adminID(c),
		Reason:        req.Reason,
	})
	return h.respond(c, http.StatusOK, txn, err)
}
