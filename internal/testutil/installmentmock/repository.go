package installmentmock

import (
	"context"

	domain "loanledger/internal/domain/installment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies installment.Repository.
type Repo struct {
	CreateBatchFn  func(ctx context.Context, rows []domain.Installment) error
	ListByLoanFn   func(ctx context.Context, loanID uint64) ([]domain.Installment, error)
	GetForUpdateFn func(ctx context.Context, loanID uint64, number int) (*domain.Installment, error)
	SaveFn         func(ctx context.Context, i *domain.Installment) error
}

func (m *Repo) CreateBatch(ctx context.Context, rows []domain.Installment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, rows)
	}
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanID uint64) ([]domain.Installment, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetForUpdate(ctx context.Context, loanID uint64, number int) (*domain.Installment, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, loanID, number)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, i *domain.Installment) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, i)
	}
	return nil
}
