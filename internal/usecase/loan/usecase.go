package loan

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"loanledger/internal/config"
	"loanledger/internal/domain/apperr"
	domain "loanledger/internal/domain/loan"
	"loanledger/internal/domain/sequence"
	"loanledger/internal/domain/uow"
	"loanledger/internal/infrastructure/logger"
	"loanledger/internal/usecase/eligibility"
	"loanledger/pkg/clock"
	"loanledger/pkg/money"
)

// maxApplyAttempts bounds the retries after losing a loan-number race.
const maxApplyAttempts = 5

var (
	ErrLoansDisabled     = apperr.FeatureDisabled("loan applications are currently disabled")
	ErrShareRequirement  = apperr.Ineligible("does not meet share ownership requirement")
	ErrHasDefaultedLoans = apperr.Ineligible("applicant has a defaulted loan")
	ErrHasActiveLoan     = apperr.Ineligible("applicant already has an active loan")
)

type Usecase struct {
	uow    uow.UnitOfWork
	policy config.Policy
	clock  clock.Clock
	log    *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, policy config.Policy, clk clock.Clock, log *zap.Logger) *Usecase {
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, policy: policy, clock: clk, log: log}
}

// Apply validates the application and creates a pending loan. Checks run in a fixed
// order and the first failure is returned.
func (u *Usecase) Apply(ctx context.Context, in ApplyInput) (*LoanDTO, error) {
	log := logger.For(ctx, u.log)
	if err := u.checkTerms(in); err != nil {
		log.Debug("loan application refused", zap.Error(err))
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		dto, err := u.apply(ctx, in)
		if errors.Is(err, uow.ErrConflict) && attempt < maxApplyAttempts {
			log.Debug("loan number conflict, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			if apperr.KindOf(err) != "" {
				log.Debug("loan application refused", zap.Error(err))
			}
			return nil, err
		}
		log.Info("loan applied",
			zap.String("loan_number", dto.LoanNumber),
			zap.String("amount", dto.Amount.String()),
			zap.Int("term_months", dto.TermMonths),
		)
		return dto, nil
	}
}

// checkTerms covers the rules that need nothing but the input and the policy.
func (u *Usecase) checkTerms(in ApplyInput) error {
	p := u.policy
	switch {
	case !p.LoansEnabled:
		return ErrLoansDisabled
	case in.Amount.LessThan(p.MinimumLoanAmount):
		return apperr.Validation("amount", fmt.Sprintf("minimum loan amount is %s", p.MinimumLoanAmount.StringFixed(money.Places)))
	case in.Amount.GreaterThan(p.MaximumLoanAmount):
		return apperr.Validation("amount", fmt.Sprintf("maximum loan amount is %s", p.MaximumLoanAmount.StringFixed(money.Places)))
	case in.TermMonths < p.MinimumLoanTermMonths:
		return apperr.Validation("term_months", fmt.Sprintf("minimum loan term is %d months", p.MinimumLoanTermMonths))
	case in.TermMonths > p.MaximumLoanTermMonths:
		return apperr.Validation("term_months", fmt.Sprintf("maximum loan term is %d months", p.MaximumLoanTermMonths))
	case strings.TrimSpace(in.Purpose) == "":
		return apperr.Validation("purpose", "purpose is required")
	case in.UserID == "":
		return apperr.Validation("user_id", "user id is required")
	}
	return nil
}

// checkStanding covers the rules that depend on the applicant's other records.
func (u *Usecase) checkStanding(ctx context.Context, r uow.Repos, in ApplyInput) error {
	h, v, err := eligibility.Snapshot(ctx, r, in.UserID)
	if err != nil {
		return err
	}
	p := u.policy
	if p.SharesRequirementEnabled {
		required := money.Percent(in.Amount, p.SharesRequirementPercentage)
		if v.UserValue.LessThan(required) {
			return ErrShareRequirement
		}
	}
	if p.RequireNoDefaultedLoans && h.HasDefaulted {
		return ErrHasDefaultedLoans
	}
	if p.BlockMultipleActiveLoans && h.HasActive {
		return ErrHasActiveLoan
	}
	return nil
}

func (u *Usecase) apply(ctx context.Context, in ApplyInput) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		now := u.clock.Now()
		// The counter row lock comes first: it serializes this applicant's standing
		// check with any concurrent application in the same year.
		counter, err := lockCounter(ctx, r, now.Year())
		if err != nil {
			return err
		}
		if err := u.checkStanding(ctx, r, in); err != nil {
			return err
		}

		number := domain.NumberFor(counter.Year, counter.Next())
		if err := r.Sequences.Save(ctx, counter); err != nil {
			return apperr.Wrap(err, "advance loan number sequence")
		}

		l := domain.New(number, domain.Terms{
			UserID:     in.UserID,
			LoanType:   strings.TrimSpace(in.LoanType),
			Purpose:    strings.TrimSpace(in.Purpose),
			Amount:     in.Amount,
			Rate:       u.policy.DefaultInterestRate,
			TermMonths: in.TermMonths,
		}, now)
		if err := r.Loans.Create(ctx, l); err != nil {
			return apperr.Wrap(err, "create loan")
		}
		out = NewDTO(l)
		return nil
	})
	return out, err
}

// lockCounter locks the year's counter row, creating it from the loans already
// numbered that year when it does not exist yet.
func lockCounter(ctx context.Context, r uow.Repos, year int) (*sequence.Counter, error) {
	c, err := r.Sequences.GetForUpdate(ctx, year)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sequence.ErrNotFound) {
		return nil, apperr.Wrap(err, "lock loan number sequence")
	}
	n, err := r.Loans.CountByNumberPrefix(ctx, domain.NumberPrefix(year))
	if err != nil {
		return nil, apperr.Wrap(err, "count loans for year")
	}
	c = &sequence.Counter{Year: year, LastValue: int(n)}
	if err := r.Sequences.Create(ctx, c); err != nil {
		return nil, apperr.Wrap(err, "create loan number sequence")
	}
	return c, nil
}

// Get returns a loan. A non-empty userID restricts the lookup to that borrower.
func (u *Usecase) Get(ctx context.Context, userID, number string) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByNumber(ctx, number)
		if err != nil {
			return apperr.Wrap(err, "get loan")
		}
		if userID != "" && l.UserID != userID {
			return domain.ErrNotFound
		}
		out = NewDTO(l)
		return nil
	})
	return out, err
}

func (u *Usecase) ListByUser(ctx context.Context, userID string) ([]LoanDTO, error) {
	var out []LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		loans, err := r.Loans.ListByUser(ctx, userID)
		if err != nil {
			return apperr.Wrap(err, "list loans")
		}
		out = make([]LoanDTO, 0, len(loans))
		for i := range loans {
			out = append(out, *NewDTO(&loans[i]))
		}
		return nil
	})
	return out, err
}
