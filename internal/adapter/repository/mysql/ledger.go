package mysql

import (
	"context"

	"gorm.io/gorm"

	"loanledger/internal/domain/ledger"
)

type LedgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) *LedgerRepository { return &LedgerRepository{db: db} }

func (r *LedgerRepository) Create(ctx context.Context, t *ledger.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *LedgerRepository) ListByLoan(ctx context.Context, loanID uint64) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
