package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loanledger/internal/domain/installment"
)

type InstallmentRepository struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) CreateBatch(ctx context.Context, rows []installment.Installment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]installment.Installment, error) {
	var out []installment.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("installment_number ASC").
		Find(&out).Error
	return out, err
}

func (r *InstallmentRepository) GetForUpdate(ctx context.Context, loanID uint64, number int) (*installment.Installment, error) {
	var out installment.Installment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ? AND installment_number = ?", loanID, number).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, installment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *InstallmentRepository) Save(ctx context.Context, i *installment.Installment) error {
	return r.db.WithContext(ctx).Save(i).Error
}
