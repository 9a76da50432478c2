// Package approval drives a loan through its administrative transitions.
package approval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"loanledger/internal/domain/apperr"
	"loanledger/internal/domain/installment"
	"loanledger/internal/domain/ledger"
	domainLoan "loanledger/internal/domain/loan"
	"loanledger/internal/domain/uow"
	"loanledger/internal/domain/wallet"
	"loanledger/internal/infrastructure/logger"
	loanuc "loanledger/internal/usecase/loan"
	"loanledger/pkg/clock"
)

type Usecase struct {
	uow   uow.UnitOfWork
	clock clock.Clock
	log   *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, clk clock.Clock, log *zap.Logger) *Usecase {
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, clock: clk, log: log}
}

func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*loanuc.LoanDTO, error) {
	return u.transition(ctx, in.LoanNumber, in.AdminID, "loan approved", func(r uow.Repos, l *domainLoan.Loan) error {
		return l.Approve(u.clock.Now())
	})
}

func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*loanuc.LoanDTO, error) {
	return u.transition(ctx, in.LoanNumber, in.AdminID, "loan rejected", func(r uow.Repos, l *domainLoan.Loan) error {
		return l.Reject(in.Reason, u.clock.Now())
	})
}

// MarkDefaulted is the hook used by collections once a loan is written off.
func (u *Usecase) MarkDefaulted(ctx context.Context, in DefaultInput) (*loanuc.LoanDTO, error) {
	return u.transition(ctx, in.LoanNumber, in.AdminID, "loan defaulted", func(r uow.Repos, l *domainLoan.Loan) error {
		return l.MarkDefaulted(in.Reason, u.clock.Now())
	})
}

// Disburse pays out an approved loan: it records the disbursement, generates the
// installment schedule and, for the wallet method, credits the borrower, all in one
// transaction.
func (u *Usecase) Disburse(ctx context.Context, in DisburseInput) (*loanuc.LoanDTO, error) {
	method := strings.TrimSpace(in.Method)
	if method == "" {
		return nil, apperr.Validation("method", "disbursement method is required")
	}
	return u.transition(ctx, in.LoanNumber, in.AdminID, "loan disbursed", func(r uow.Repos, l *domainLoan.Loan) error {
		if err := l.Disburse(u.clock.Now()); err != nil {
			return err
		}
		if err := r.Installments.CreateBatch(ctx, installment.BuildSchedule(l)); err != nil {
			return apperr.Wrap(err, "create installment schedule")
		}

		desc := in.Description
		if desc == "" {
			desc = fmt.Sprintf("Disbursement of loan %s", l.LoanNumber)
		}
		txn := ledger.NewDisbursement(l.ID, l.Amount, l.RemainingBalance, method, desc)
		if err := r.LoanTxns.Create(ctx, txn); err != nil {
			return apperr.Wrap(err, "record disbursement")
		}
		if method == wallet.PaymentMethod {
			if _, err := wallet.NewLedger(r.Wallets).Credit(ctx, l.UserID, l.Amount, desc, txn.TransactionID); err != nil {
				return apperr.Wrap(err, "credit wallet")
			}
		}
		return nil
	})
}

func (u *Usecase) transition(ctx context.Context, number, adminID, event string, apply func(r uow.Repos, l *domainLoan.Loan) error) (*loanuc.LoanDTO, error) {
	if u.uow == nil {
		return nil, domainLoan.ErrInvalidTransition
	}
	var dto *loanuc.LoanDTO
	err := u.uow.WithinLoanTx(ctx, number, func(r uow.Repos, l *domainLoan.Loan) error {
		if err := apply(r, l); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return apperr.Wrap(err, "save loan")
		}
		dto = loanuc.NewDTO(l)
		return nil
	})
	if err != nil {
		logger.For(ctx, u.log).Debug(event+" refused", zap.String("loan_number", number), zap.Error(err))
		return nil, err
	}
	logger.For(ctx, u.log).Info(event,
		zap.String("loan_number", number),
		zap.String("admin_id", adminID),
		zap.String("status", dto.Status),
	)
	return dto, nil
}
