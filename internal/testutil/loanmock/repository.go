package loanmock

import (
	"context"

	domain "loanledger/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to a nil error; reads default to context.Canceled.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
	GetByNumberFn          func(ctx context.Context, number string) (*domain.Loan, error)
	GetByNumberForUpdateFn func(ctx context.Context, number string) (*domain.Loan, error)
	ListByUserFn           func(ctx context.Context, userID string) ([]domain.Loan, error)
	HistoryFn              func(ctx context.Context, userID string) (domain.History, error)
	CountByNumberPrefixFn  func(ctx context.Context, prefix string) (int64, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByNumber(ctx context.Context, number string) (*domain.Loan, error) {
	if m.GetByNumberFn != nil {
		return m.GetByNumberFn(ctx, number)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByNumberForUpdate(ctx context.Context, number string) (*domain.Loan, error) {
	if m.GetByNumberForUpdateFn != nil {
		return m.GetByNumberForUpdateFn(ctx, number)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByUser(ctx context.Context, userID string) ([]domain.Loan, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	return nil, context.Canceled
}

func (m *Repo) History(ctx context.Context, userID string) (domain.History, error) {
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx, userID)
	}
	return domain.History{}, context.Canceled
}

func (m *Repo) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	if m.CountByNumberPrefixFn != nil {
		return m.CountByNumberPrefixFn(ctx, prefix)
	}
	return 0, context.Canceled
}
