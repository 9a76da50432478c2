// Package ledger keeps the audit trail of money moving in and out of a loan.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"loanledger/pkg/id"
)

type Type string

const (
	TypeDisbursement Type = "disbursement"
	TypeRepayment    Type = "repayment"
)

type Transaction struct {
	ID                uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	TransactionID     string          `gorm:"column:transaction_id;size:40;not null;uniqueIndex:ux_loan_transactions_tx_id" json:"transaction_id"`
	LoanID            uint64          `gorm:"column:loan_id;not null;index" json:"-"`
	Type              Type            `gorm:"column:type;size:16;not null" json:"type"`
	Amount            decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Method            string          `gorm:"column:method;size:32" json:"method"`
	Description       string          `gorm:"column:description;size:255" json:"description"`
	InstallmentNumber *int            `gorm:"column:installment_number" json:"installment_number,omitempty"`
	BalanceAfter      decimal.Decimal `gorm:"column:balance_after;type:decimal(18,2);not null" json:"balance_after"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string { return "loan_transactions" }

func NewDisbursement(loanID uint64, amount, balanceAfter decimal.Decimal, method, description string) *Transaction {
	return &Transaction{
		TransactionID: id.NewReference("LTX"),
		LoanID:        loanID,
		Type:          TypeDisbursement,
		Amount:        amount,
		Method:        method,
		Description:   description,
		BalanceAfter:  balanceAfter,
	}
}

// NewRepayment records a payment; installment is nil for a general payment.
func NewRepayment(loanID uint64, amount, balanceAfter decimal.Decimal, method, description string, installment *int) *Transaction {
	return &Transaction{
		TransactionID:     id.NewReference("LTX"),
		LoanID:            loanID,
		Type:              TypeRepayment,
		Amount:            amount,
		Method:            method,
		Description:       description,
		InstallmentNumber: installment,
		BalanceAfter:      balanceAfter,
	}
}

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	ListByLoan(ctx context.Context, loanID uint64) ([]Transaction, error)
}
