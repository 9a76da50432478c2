package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByNumber(ctx context.Context, number string) (*Loan, error)
	// GetByNumberForUpdate locks the row until the surrounding transaction ends.
	GetByNumberForUpdate(ctx context.Context, number string) (*Loan, error)
	ListByUser(ctx context.Context, userID string) ([]Loan, error)
	History(ctx context.Context, userID string) (History, error)
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
}
