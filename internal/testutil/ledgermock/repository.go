package ledgermock

import (
	"context"

	domain "loanledger/internal/domain/ledger"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies ledger.Repository.
type Repo struct {
	CreateFn     func(ctx context.Context, t *domain.Transaction) error
	ListByLoanFn func(ctx context.Context, loanID uint64) ([]domain.Transaction, error)
}

func (m *Repo) Create(ctx context.Context, t *domain.Transaction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, t)
	}
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanID uint64) ([]domain.Transaction, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	return nil, context.Canceled
}
