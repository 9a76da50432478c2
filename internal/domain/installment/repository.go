package installment

import "context"

type Repository interface {
	CreateBatch(ctx context.Context, rows []Installment) error
	// ListByLoan returns rows ordered by installment number.
	ListByLoan(ctx context.Context, loanID uint64) ([]Installment, error)
	GetForUpdate(ctx context.Context, loanID uint64, number int) (*Installment, error)
	Save(ctx context.Context, i *Installment) error
}
