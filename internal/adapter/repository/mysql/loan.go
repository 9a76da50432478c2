package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "loanledger/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByNumber(ctx context.Context, number string) (*loanDomain.Loan, error) {
	return r.first(r.db.WithContext(ctx), number)
}

func (r *LoanRepository) GetByNumberForUpdate(ctx context.Context, number string) (*loanDomain.Loan, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), number)
}

func (r *LoanRepository) first(q *gorm.DB, number string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := q.Where("loan_number = ?", number).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) History(ctx context.Context, userID string) (loanDomain.History, error) {
	var h loanDomain.History
	var defaulted, open int64
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{})
	if err := q.Where("user_id = ? AND status = ?", userID, loanDomain.StatusDefaulted).Count(&defaulted).Error; err != nil {
		return h, err
	}
	q = r.db.WithContext(ctx).Model(&loanDomain.Loan{})
	if err := q.Where("user_id = ? AND status IN ?", userID, loanDomain.OpenStatuses).Count(&open).Error; err != nil {
		return h, err
	}
	h.HasDefaulted = defaulted > 0
	h.HasActive = open > 0
	return h, nil
}

func (r *LoanRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Where("loan_number LIKE ?", prefix+"%").
		Count(&n).Error
	return n, err
}
