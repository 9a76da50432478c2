package share

import "context"

type OfferingRepository interface {
	Create(ctx context.Context, s *Share) error
	Save(ctx context.Context, s *Share) error
	// GetCurrentForUpdate locks the newest active offering.
	GetCurrentForUpdate(ctx context.Context) (*Share, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Share, error)
	List(ctx context.Context) ([]Share, error)
}

type HoldingRepository interface {
	GetForUpdate(ctx context.Context, userID string, shareID uint64) (*Holding, error)
	ListByUser(ctx context.Context, userID string) ([]Holding, error)
	Create(ctx context.Context, h *Holding) error
	Save(ctx context.Context, h *Holding) error
	Delete(ctx context.Context, h *Holding) error
}

type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	Save(ctx context.Context, t *Transaction) error
	GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*Transaction, error)
	// PendingSellQuantity sums the quantity of the user's pending sells in one offering.
	PendingSellQuantity(ctx context.Context, userID string, shareID uint64) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
}
