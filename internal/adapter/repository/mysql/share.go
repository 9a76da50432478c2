package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loanledger/internal/domain/share"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

type OfferingRepository struct{ db *gorm.DB }

func NewOfferingRepository(db *gorm.DB) *OfferingRepository { return &OfferingRepository{db: db} }

func (r *OfferingRepository) Create(ctx context.Context, s *share.Share) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *OfferingRepository) Save(ctx context.Context, s *share.Share) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *OfferingRepository) GetCurrentForUpdate(ctx context.Context) (*share.Share, error) {
	var out share.Share
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, share.ErrNoOffering
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *OfferingRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*share.Share, error) {
	var out share.Share
	err := r.db.WithContext(ctx).Clauses(forUpdate).First(&out, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, share.ErrOfferingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *OfferingRepository) List(ctx context.Context) ([]share.Share, error) {
	var out []share.Share
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

type HoldingRepository struct{ db *gorm.DB }

func NewHoldingRepository(db *gorm.DB) *HoldingRepository { return &HoldingRepository{db: db} }

func (r *HoldingRepository) GetForUpdate(ctx context.Context, userID string, shareID uint64) (*share.Holding, error) {
	var out share.Holding
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("user_id = ? AND share_id = ?", userID, shareID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, share.ErrHoldingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *HoldingRepository) ListByUser(ctx context.Context, userID string) ([]share.Holding, error) {
	var out []share.Holding
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("share_id ASC").Find(&out).Error
	return out, err
}

func (r *HoldingRepository) Create(ctx context.Context, h *share.Holding) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *HoldingRepository) Save(ctx context.Context, h *share.Holding) error {
	return r.db.WithContext(ctx).Save(h).Error
}

func (r *HoldingRepository) Delete(ctx context.Context, h *share.Holding) error {
	return r.db.WithContext(ctx).Delete(h).Error
}

type ShareTxnRepository struct{ db *gorm.DB }

func NewShareTxnRepository(db *gorm.DB) *ShareTxnRepository { return &ShareTxnRepository{db: db} }

func (r *ShareTxnRepository) Create(ctx context.Context, t *share.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *ShareTxnRepository) Save(ctx context.Context, t *share.Transaction) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *ShareTxnRepository) GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*share.Transaction, error) {
	var out share.Transaction
	err := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("transaction_id = ?", transactionID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, share.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ShareTxnRepository) PendingSellQuantity(ctx context.Context, userID string, shareID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&share.Transaction{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("user_id = ? AND share_id = ? AND type = ? AND status = ?", userID, shareID, share.TxSell, share.TxPending).
		Scan(&n).Error
	return n, err
}

func (r *ShareTxnRepository) ListByUser(ctx context.Context, userID string) ([]share.Transaction, error) {
	var out []share.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
