package installmentmock

import (
	"context"
	"errors"
	"testing"

	domain "loanledger/internal/domain/installment"
)

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if err := m.CreateBatch(ctx, nil); err != nil {
		t.Fatalf("CreateBatch default: %v", err)
	}
	if err := m.Save(ctx, &domain.Installment{}); err != nil {
		t.Fatalf("Save default: %v", err)
	}
	if _, err := m.ListByLoan(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("ListByLoan default: want context.Canceled, got %v", err)
	}
	if _, err := m.GetForUpdate(ctx, 1, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("GetForUpdate default: want context.Canceled, got %v", err)
	}
}

func TestRepo_CreateBatchForwards(t *testing.T) {
	var n int
	m := &Repo{CreateBatchFn: func(_ context.Context, rows []domain.Installment) error {
		n = len(rows)
		return nil
	}}
	if err := m.CreateBatch(context.Background(), make([]domain.Installment, 12)); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if n != 12 {
		t.Fatalf("rows forwarded = %d, want 12", n)
	}
}
