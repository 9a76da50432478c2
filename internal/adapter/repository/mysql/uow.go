package mysql

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/uow"
)

const (
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func bind(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:        &LoanRepository{db: tx},
		Installments: &InstallmentRepository{db: tx},
		LoanTxns:     &LedgerRepository{db: tx},
		Sequences:    &SequenceRepository{db: tx},
		Offerings:    &OfferingRepository{db: tx},
		Holdings:     &HoldingRepository{db: tx},
		ShareTxns:    &ShareTxnRepository{db: tx},
		Wallets:      &WalletRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(bind(tx))
	})
	return markConflict(err)
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanNumber string, fn func(r uow.Repos, l *loan.Loan) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := bind(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByNumberForUpdate(ctx, loanNumber)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
	return markConflict(err)
}

// markConflict tags errors caused by a competing transaction with uow.ErrConflict.
func markConflict(err error) error {
	if err == nil || !isConflict(err) {
		return err
	}
	return fmt.Errorf("%w: %w", uow.ErrConflict, err)
}

func isConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		return me.Number == erLockDeadlock || me.Number == erLockWaitTimeout
	}
	return false
}
