// Package repayment books borrower payments against a disbursed loan and its
// installment schedule.
package repayment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
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

func validatePayment(in PaymentInput) error {
	if !in.Amount.IsPositive() {
		return apperr.Validation("amount", "payment amount must be greater than zero")
	}
	if strings.TrimSpace(in.Method) == "" {
		return apperr.Validation("method", "payment method is required")
	}
	return nil
}

// MakePayment applies a general payment. The amount is spread over the open
// installments in due order; anything beyond the schedule only raises total_paid.
func (u *Usecase) MakePayment(ctx context.Context, in PaymentInput) (*PaymentDTO, error) {
	log := logger.For(ctx, u.log)
	if err := validatePayment(in); err != nil {
		log.Debug("payment refused", zap.Error(err))
		return nil, err
	}
	desc := in.Description
	if desc == "" {
		desc = fmt.Sprintf("Payment for loan %s", in.LoanNumber)
	}

	var out *PaymentDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanNumber, func(r uow.Repos, l *domainLoan.Loan) error {
		if err := owns(l, in.UserID); err != nil {
			return err
		}
		now := u.clock.Now()
		amount := chargeable(in, l)
		if err := l.ApplyPayment(amount, now); err != nil {
			return err
		}
		rows, err := r.Installments.ListByLoan(ctx, l.ID)
		if err != nil {
			return apperr.Wrap(err, "list installments")
		}
		touched, _ := installment.Allocate(rows, amount, now)
		if err := saveAll(ctx, r, touched); err != nil {
			return err
		}

		txn, err := u.book(ctx, r, l, amount, in.Method, desc, nil)
		if err != nil {
			return err
		}
		out = &PaymentDTO{Loan: loanuc.NewDTO(l), Transaction: txn, Installments: dtos(touched, now)}
		return nil
	})
	if err != nil {
		log.Debug("payment refused", zap.String("loan_number", in.LoanNumber), zap.Error(err))
		return nil, err
	}
	log.Info("payment applied",
		zap.String("loan_number", in.LoanNumber),
		zap.String("amount", out.Transaction.Amount.String()),
		zap.String("status", out.Loan.Status),
	)
	return out, nil
}

// PayInstallment pays a specific installment. The target row is settled first, the
// excess flows to later rows and then to earlier rows still open. The loan aggregate
// moves by the full amount in the same transaction.
func (u *Usecase) PayInstallment(ctx context.Context, in InstallmentPaymentInput) (*PaymentDTO, error) {
	log := logger.For(ctx, u.log)
	if err := validatePayment(in.PaymentInput); err != nil {
		log.Debug("installment payment refused", zap.Error(err))
		return nil, err
	}
	if in.InstallmentNumber < 1 {
		return nil, apperr.Validation("installment_number", "installment number must be at least 1")
	}
	desc := in.Description
	if desc == "" {
		desc = fmt.Sprintf("Payment for installment %d of loan %s", in.InstallmentNumber, in.LoanNumber)
	}

	var out *PaymentDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanNumber, func(r uow.Repos, l *domainLoan.Loan) error {
		if err := owns(l, in.UserID); err != nil {
			return err
		}
		if !l.Status.Repayable() {
			return domainLoan.ErrNotRepayable
		}
		now := u.clock.Now()
		amount := chargeable(in.PaymentInput, l)

		target, err := r.Installments.GetForUpdate(ctx, l.ID, in.InstallmentNumber)
		if err != nil {
			return apperr.Wrap(err, "lock installment")
		}
		if target.Status == installment.StatusPaid {
			return installment.ErrAlreadyPaid
		}
		excess := amount.Sub(target.Apply(amount, now))
		touched := []*installment.Installment{target}

		if excess.IsPositive() {
			rows, err := r.Installments.ListByLoan(ctx, l.ID)
			if err != nil {
				return apperr.Wrap(err, "list installments")
			}
			later, earlier := splitAround(rows, target.Number)
			more, rest := installment.Allocate(later, excess, now)
			touched = append(touched, more...)
			more, _ = installment.Allocate(earlier, rest, now)
			touched = append(touched, more...)
		}
		if err := saveAll(ctx, r, touched); err != nil {
			return err
		}

		if err := l.ApplyPayment(amount, now); err != nil {
			return err
		}
		number := in.InstallmentNumber
		txn, err := u.book(ctx, r, l, amount, in.Method, desc, &number)
		if err != nil {
			return err
		}
		out = &PaymentDTO{Loan: loanuc.NewDTO(l), Transaction: txn, Installments: dtos(touched, now)}
		return nil
	})
	if err != nil {
		log.Debug("installment payment refused",
			zap.String("loan_number", in.LoanNumber),
			zap.Int("installment_number", in.InstallmentNumber),
			zap.Error(err),
		)
		return nil, err
	}
	log.Info("installment payment applied",
		zap.String("loan_number", in.LoanNumber),
		zap.Int("installment_number", in.InstallmentNumber),
		zap.String("amount", out.Transaction.Amount.String()),
		zap.String("status", out.Loan.Status),
	)
	return out, nil
}

// Schedule lists a loan's installments, flagging the overdue ones, and its ledger.
func (u *Usecase) Schedule(ctx context.Context, userID, number string) (*ScheduleDTO, error) {
	var out *ScheduleDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByNumber(ctx, number)
		if err != nil {
			return apperr.Wrap(err, "get loan")
		}
		if err := owns(l, userID); err != nil {
			return err
		}
		rows, err := r.Installments.ListByLoan(ctx, l.ID)
		if err != nil {
			return apperr.Wrap(err, "list installments")
		}
		txns, err := r.LoanTxns.ListByLoan(ctx, l.ID)
		if err != nil {
			return apperr.Wrap(err, "list loan transactions")
		}
		now := u.clock.Now()
		out = &ScheduleDTO{
			Loan:         loanuc.NewDTO(l),
			Installments: make([]InstallmentDTO, 0, len(rows)),
			Transactions: txns,
		}
		for k := range rows {
			out.Installments = append(out.Installments, newInstallmentDTO(&rows[k], now))
		}
		return nil
	})
	return out, err
}

// book records the repayment on the loan ledger, debits the wallet for the wallet
// method and saves the loan.
func (u *Usecase) book(ctx context.Context, r uow.Repos, l *domainLoan.Loan, amount decimal.Decimal, method, desc string, number *int) (*ledger.Transaction, error) {
	method = strings.TrimSpace(method)
	txn := ledger.NewRepayment(l.ID, amount, l.RemainingBalance, method, desc, number)
	if method == wallet.PaymentMethod {
		if _, err := wallet.NewLedger(r.Wallets).Debit(ctx, l.UserID, amount, desc, txn.TransactionID); err != nil {
			return nil, apperr.Wrap(err, "debit wallet")
		}
	}
	if err := r.LoanTxns.Create(ctx, txn); err != nil {
		return nil, apperr.Wrap(err, "record repayment")
	}
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, apperr.Wrap(err, "save loan")
	}
	return txn, nil
}

// chargeable caps a wallet payment at what the loan still owes. Other methods settle
// outside the engine, so their overpayment is kept on total_paid as received.
func chargeable(in PaymentInput, l *domainLoan.Loan) decimal.Decimal {
	if strings.TrimSpace(in.Method) == wallet.PaymentMethod && l.RemainingBalance.IsPositive() {
		return decimal.Min(in.Amount, l.RemainingBalance)
	}
	return in.Amount
}

func owns(l *domainLoan.Loan, userID string) error {
	if userID != "" && l.UserID != userID {
		return domainLoan.ErrNotFound
	}
	return nil
}

func saveAll(ctx context.Context, r uow.Repos, rows []*installment.Installment) error {
	for _, row := range rows {
		if err := r.Installments.Save(ctx, row); err != nil {
			return apperr.Wrap(err, "save installment")
		}
	}
	return nil
}

// splitAround returns the rows after number and the rows before it, both in due order.
func splitAround(rows []installment.Installment, number int) (later, earlier []installment.Installment) {
	for k := range rows {
		switch {
		case rows[k].Number < number:
			earlier = rows[:k+1]
		case rows[k].Number > number:
			return rows[k:], earlier
		}
	}
	return nil, earlier
}

func dtos(rows []*installment.Installment, now time.Time) []InstallmentDTO {
	out := make([]InstallmentDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, newInstallmentDTO(r, now))
	}
	return out
}
