package installment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

// Installment is one scheduled repayment. Numbers run 1..n per loan without gaps.
type Installment struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID uint64 `gorm:"not null;uniqueIndex:ux_installments_loan_number,priority:1" json:"-"`
	Number int    `gorm:"column:installment_number;not null;uniqueIndex:ux_installments_loan_number,priority:2" json:"installment_number"`

	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PrincipalAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"principal_amount"`
	InterestAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"interest_amount"`
	AmountPaid       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount_paid"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"remaining_balance"`

	DueDate   time.Time  `gorm:"not null" json:"due_date"`
	PaidDate  *time.Time `json:"paid_date"`
	Status    Status     `gorm:"size:16;not null;default:'pending'" json:"status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"-"`
}

func (Installment) TableName() string { return "loan_installments" }
