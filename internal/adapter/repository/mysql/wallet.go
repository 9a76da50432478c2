package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"loanledger/internal/domain/wallet"
)

type WalletRepository struct{ db *gorm.DB }

func NewWalletRepository(db *gorm.DB) *WalletRepository { return &WalletRepository{db: db} }

func (r *WalletRepository) GetByUserForUpdate(ctx context.Context, userID string) (*wallet.Wallet, error) {
	var out wallet.Wallet
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("user_id = ?", userID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wallet.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *WalletRepository) AddEntry(ctx context.Context, e *wallet.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}
