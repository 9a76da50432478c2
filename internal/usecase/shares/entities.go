package shares

import (
	"github.com/shopspring/decimal"

	"loanledger/internal/domain/share"
)

type BuyInput struct {
	UserID   string
	Quantity int64
}

type SellInput struct {
	UserID   string
	Quantity int64
}

type ReviewInput struct {
	TransactionID string
	AdminID       string
	Reason        string
}

type CancelInput struct {
	UserID        string
	TransactionID string
}

type IssueInput struct {
	AdminID         string
	Name            string
	TotalShares     int64
	PricePerShare   decimal.Decimal
	MinimumPurchase int64
	MaximumPurchase int64
}

type HoldingDTO struct {
	ShareID       uint64          `json:"share_id"`
	ShareName     string          `json:"share_name"`
	Quantity      int64           `json:"quantity"`
	PendingSell   int64           `json:"pending_sell_quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	CurrentValue  decimal.Decimal `json:"current_value"`
}

type PortfolioDTO struct {
	UserID                   string              `json:"user_id"`
	Holdings                 []HoldingDTO        `json:"holdings"`
	TotalShareValue          decimal.Decimal     `json:"total_share_value"`
	PoolValue                decimal.Decimal     `json:"pool_value"`
	ShareOwnershipPercentage decimal.Decimal     `json:"share_ownership_percentage"`
	Transactions             []share.Transaction `json:"transactions"`
}
