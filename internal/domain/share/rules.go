package share

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loanledger/internal/domain/apperr"
	"loanledger/pkg/id"
	"loanledger/pkg/money"
)

const DefaultRejectReason = "Share sale rejected by administrator"

var (
	ErrNoOffering          = apperr.NotFound("no active share offering")
	ErrOfferingNotFound    = apperr.NotFound("share offering not found")
	ErrHoldingNotFound     = apperr.NotFound("share holding not found")
	ErrTransactionNotFound = apperr.NotFound("share transaction not found")
	ErrNotPendingSale      = apperr.InvalidState("only pending sell transactions can be processed")
	ErrHoldingShort        = apperr.InvalidState("holding no longer covers the sale quantity")
)

// Cost is quantity × price, rounded to cents.
func (s *Share) Cost(quantity int64) decimal.Decimal {
	return money.Round(s.PricePerShare.Mul(decimal.NewFromInt(quantity)))
}

// PoolValue is the value of every share issued in the offering.
func (s *Share) PoolValue() decimal.Decimal { return s.Cost(s.TotalShares) }

// CheckPurchaseBounds enforces the offering's per-order quantity limits.
func (s *Share) CheckPurchaseBounds(quantity int64) error {
	if s.MinimumPurchase > 0 && quantity < s.MinimumPurchase {
		return apperr.Validation("quantity", "quantity is below the offering minimum purchase")
	}
	if s.MaximumPurchase > 0 && quantity > s.MaximumPurchase {
		return apperr.Validation("quantity", "quantity exceeds the offering maximum purchase")
	}
	return nil
}

// Add grows the holding; PurchasePrice becomes the average cost.
func (h *Holding) Add(quantity int64, cost decimal.Decimal) {
	h.Quantity += quantity
	h.TotalPaid = money.Round(h.TotalPaid.Add(cost))
	if h.Quantity > 0 {
		h.PurchasePrice = money.Round(h.TotalPaid.Div(decimal.NewFromInt(h.Quantity)))
	}
}

// Remove shrinks the holding at its average cost.
func (h *Holding) Remove(quantity int64) {
	h.Quantity -= quantity
	if h.Quantity <= 0 {
		h.Quantity = 0
		h.TotalPaid = decimal.Zero
		return
	}
	h.TotalPaid = money.Round(h.PurchasePrice.Mul(decimal.NewFromInt(h.Quantity)))
}

// SaleAmounts splits a sale total into fee and net at feePct percent.
func SaleAmounts(total, feePct decimal.Decimal) (fee, net decimal.Decimal) {
	fee = money.Round(money.Percent(total, feePct))
	return fee, total.Sub(fee)
}

// NewBuy is a buy order; buys settle immediately so it starts completed.
func NewBuy(userID string, s *Share, quantity int64, now time.Time) *Transaction {
	total := s.Cost(quantity)
	return &Transaction{
		TransactionID: id.NewReference("STX"),
		UserID:        userID,
		ShareID:       s.ID,
		Type:          TxBuy,
		Quantity:      quantity,
		PricePerShare: s.PricePerShare,
		TotalAmount:   total,
		FeeAmount:     decimal.Zero,
		NetAmount:     total,
		Status:        TxCompleted,
		ProcessedAt:   &now,
	}
}

// NewSell is a pending sell order priced at the current offering price.
func NewSell(userID string, s *Share, quantity int64, feePct decimal.Decimal) *Transaction {
	total := s.Cost(quantity)
	fee, net := SaleAmounts(total, feePct)
	return &Transaction{
		TransactionID: id.NewReference("STX"),
		UserID:        userID,
		ShareID:       s.ID,
		Type:          TxSell,
		Quantity:      quantity,
		PricePerShare: s.PricePerShare,
		TotalAmount:   total,
		FeeAmount:     fee,
		NetAmount:     net,
		Status:        TxPending,
	}
}

func (t *Transaction) IsPendingSale() bool { return t.Type == TxSell && t.Status == TxPending }

func (t *Transaction) settle(status TxStatus, by, note string, now time.Time) error {
	if !t.IsPendingSale() {
		return ErrNotPendingSale
	}
	t.Status = status
	t.ProcessedBy = by
	t.ProcessedAt = &now
	if note = strings.TrimSpace(note); note != "" {
		t.Notes = note
	}
	return nil
}

func (t *Transaction) Complete(adminID string, now time.Time) error {
	return t.settle(TxCompleted, adminID, "", now)
}

// Reject falls back to DefaultRejectReason when reason is blank.
func (t *Transaction) Reject(adminID, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultRejectReason
	}
	return t.settle(TxRejected, adminID, reason, now)
}

func (t *Transaction) Cancel(userID string, now time.Time) error {
	return t.settle(TxCancelled, userID, "Cancelled by owner", now)
}

// Valuation is a user's stake measured against the whole pool.
type Valuation struct {
	UserValue decimal.Decimal
	PoolValue decimal.Decimal
}

// Ownership is UserValue/PoolValue × 100 unrounded, zero for an empty pool. Compare
// requirements against this, not the rounded figure.
func (v Valuation) Ownership() decimal.Decimal {
	return money.Ratio(v.UserValue, v.PoolValue)
}

// OwnershipPercentage is Ownership rounded to cents for display.
func (v Valuation) OwnershipPercentage() decimal.Decimal {
	return money.Round(v.Ownership())
}

// Value prices holdings at their offering's current price.
func Value(holdings []Holding, offerings []Share) Valuation {
	byID := make(map[uint64]*Share, len(offerings))
	pool := decimal.Zero
	for i := range offerings {
		byID[offerings[i].ID] = &offerings[i]
		pool = pool.Add(offerings[i].PoolValue())
	}
	user := decimal.Zero
	for _, h := range holdings {
		if s, ok := byID[h.ShareID]; ok {
			user = user.Add(s.Cost(h.Quantity))
		}
	}
	return Valuation{UserValue: user, PoolValue: pool}
}
