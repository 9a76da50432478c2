package uow

import (
	"context"
	"errors"

	"loanledger/internal/domain/installment"
	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/sequence"
	"loanledger/internal/domain/share"
	"loanledger/internal/domain/wallet"
)

// ErrConflict marks a transaction that lost a race (duplicate key, deadlock) and may be
// retried from the start.
var ErrConflict = errors.New("unit of work: concurrent write conflict")

// Repos are bound to one transaction.
type Repos struct {
	Loans        loan.Repository
	Installments installment.Repository
	LoanTxns     ledger.Repository
	Sequences    sequence.Repository
	Offerings    share.OfferingRepository
	Holdings     share.HoldingRepository
	ShareTxns    share.TransactionRepository
	Wallets      wallet.Repository
}

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row first, then passes it in.
	WithinLoanTx(ctx context.Context, loanNumber string, fn func(r Repos, l *loan.Loan) error) error
}
