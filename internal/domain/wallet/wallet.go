// Package wallet is the balance collaborator debited by share purchases and
// repayments and credited by sales and disbursements.
package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"loanledger/internal/domain/apperr"
	"loanledger/pkg/money"
)

var (
	ErrNotFound          = errors.New("wallet not found")
	ErrInsufficientFunds = apperr.InsufficientFunds("insufficient wallet balance")
)

// PaymentMethod is the disbursement/repayment method settled against the wallet.
const PaymentMethod = "wallet"

type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

type Wallet struct {
	ID        uint64          `gorm:"primaryKey;column:id" json:"-"`
	UserID    string          `gorm:"size:32;not null;uniqueIndex:ux_wallets_user_id" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

type Entry struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	WalletID     uint64          `gorm:"not null;index" json:"-"`
	UserID       string          `gorm:"size:32;not null;index" json:"user_id"`
	Type         EntryType       `gorm:"size:8;not null" json:"type"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_after"`
	Memo         string          `gorm:"size:255" json:"memo"`
	Reference    string          `gorm:"size:64;index" json:"reference"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "wallet_entries" }

type Repository interface {
	// GetByUserForUpdate returns ErrNotFound when the user has no wallet.
	GetByUserForUpdate(ctx context.Context, userID string) (*Wallet, error)
	Create(ctx context.Context, w *Wallet) error
	Save(ctx context.Context, w *Wallet) error
	AddEntry(ctx context.Context, e *Entry) error
}

// Ledger moves money in and out of a user's wallet.
type Ledger interface {
	Debit(ctx context.Context, userID string, amount decimal.Decimal, memo, ref string) (*Entry, error)
	Credit(ctx context.Context, userID string, amount decimal.Decimal, memo, ref string) (*Entry, error)
}

// RepoLedger implements Ledger on a Repository. Bind it to a transaction-scoped
// repository so the movement commits or rolls back with the caller's work.
type RepoLedger struct{ repo Repository }

func NewLedger(repo Repository) *RepoLedger { return &RepoLedger{repo: repo} }

func (l *RepoLedger) Debit(ctx context.Context, userID string, amount decimal.Decimal, memo, ref string) (*Entry, error) {
	if !amount.IsPositive() {
		return nil, apperr.Validation("amount", "debit amount must be greater than zero")
	}
	w, err := l.repo.GetByUserForUpdate(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	if w.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}
	w.Balance = money.Round(w.Balance.Sub(amount))
	return l.book(ctx, w, EntryDebit, amount, memo, ref)
}

// Credit opens the wallet on first use.
func (l *RepoLedger) Credit(ctx context.Context, userID string, amount decimal.Decimal, memo, ref string) (*Entry, error) {
	if !amount.IsPositive() {
		return nil, apperr.Validation("amount", "credit amount must be greater than zero")
	}
	w, err := l.repo.GetByUserForUpdate(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		w = &Wallet{UserID: userID, Balance: decimal.Zero}
		if err := l.repo.Create(ctx, w); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	w.Balance = money.Round(w.Balance.Add(amount))
	return l.book(ctx, w, EntryCredit, amount, memo, ref)
}

func (l *RepoLedger) book(ctx context.Context, w *Wallet, typ EntryType, amount decimal.Decimal, memo, ref string) (*Entry, error) {
	if err := l.repo.Save(ctx, w); err != nil {
		return nil, err
	}
	e := &Entry{
		WalletID:     w.ID,
		UserID:       w.UserID,
		Type:         typ,
		Amount:       amount,
		BalanceAfter: w.Balance,
		Memo:         memo,
		Reference:    ref,
	}
	if err := l.repo.AddEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
