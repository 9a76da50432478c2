package share

import (
	"time"

	"github.com/shopspring/decimal"
)

// Share is an offering in the collateral pool.
type Share struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"id"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	TotalShares     int64           `gorm:"not null" json:"total_shares"`
	AvailableShares int64           `gorm:"not null" json:"available_shares"`
	PricePerShare   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price_per_share"`
	// Purchase bounds in shares per order; zero means unbounded.
	MinimumPurchase int64     `gorm:"not null;default:0" json:"minimum_purchase"`
	MaximumPurchase int64     `gorm:"not null;default:0" json:"maximum_purchase"`
	IsActive        bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Share) TableName() string { return "shares" }

// Holding is a user's aggregate position in one offering.
type Holding struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	UserID        string          `gorm:"size:32;not null;uniqueIndex:ux_user_shares_user_share,priority:1" json:"user_id"`
	ShareID       uint64          `gorm:"not null;uniqueIndex:ux_user_shares_user_share,priority:2" json:"share_id"`
	Quantity      int64           `gorm:"not null" json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"purchase_price"`
	TotalPaid     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_paid"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Holding) TableName() string { return "user_shares" }

type TxType string

const (
	TxBuy  TxType = "buy"
	TxSell TxType = "sell"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
	TxRejected  TxStatus = "rejected"
	TxCancelled TxStatus = "cancelled"
)

// Transaction is the audit record of a buy or sell order.
type Transaction struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	TransactionID string          `gorm:"size:40;not null;uniqueIndex:ux_share_transactions_tx_id" json:"transaction_id"`
	UserID        string          `gorm:"size:32;not null;index:idx_share_tx_user_share,priority:1" json:"user_id"`
	ShareID       uint64          `gorm:"not null;index:idx_share_tx_user_share,priority:2" json:"share_id"`
	Type          TxType          `gorm:"size:8;not null" json:"type"`
	Quantity      int64           `gorm:"not null" json:"quantity"`
	PricePerShare decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price_per_share"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	FeeAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"fee_amount"`
	NetAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"net_amount"`
	Status        TxStatus        `gorm:"size:16;not null;index" json:"status"`
	Notes         string          `gorm:"type:text" json:"notes"`
	ProcessedBy   string          `gorm:"size:32" json:"processed_by,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string { return "share_transactions" }
