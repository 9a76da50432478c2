// Package eligibility decides whether a borrower may apply for a loan and how much
// their shares can secure.
package eligibility

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loanledger/internal/config"
	"loanledger/internal/domain/apperr"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/share"
	"loanledger/internal/domain/uow"
	"loanledger/internal/infrastructure/logger"
	"loanledger/pkg/money"
)

type Details struct {
	CanApply                    bool            `json:"can_apply"`
	MeetsShareRequirement       bool            `json:"meets_share_requirement"`
	HasDefaultedLoans           bool            `json:"has_defaulted_loans"`
	HasActiveLoans              bool            `json:"has_active_loans"`
	ShareOwnershipPercentage    decimal.Decimal `json:"share_ownership_percentage"`
	TotalShareValue             decimal.Decimal `json:"total_share_value"`
	MaxLoanAmount               decimal.Decimal `json:"max_loan_amount"`
	SharesRequirementPercentage decimal.Decimal `json:"shares_requirement_percentage"`
	SharesRequirementEnabled    bool            `json:"shares_requirement_enabled"`
}

// Evaluate applies the eligibility rules in order; every rule must hold.
func Evaluate(h loan.History, v share.Valuation, p config.Policy) Details {
	d := Details{
		HasDefaultedLoans:           h.HasDefaulted,
		HasActiveLoans:              h.HasActive,
		ShareOwnershipPercentage:    v.OwnershipPercentage(),
		TotalShareValue:             money.Round(v.UserValue),
		SharesRequirementPercentage: p.SharesRequirementPercentage,
		SharesRequirementEnabled:    p.SharesRequirementEnabled,
		MeetsShareRequirement:       true,
		MaxLoanAmount:               p.MaximumLoanAmount,
	}
	if p.SharesRequirementEnabled {
		d.MeetsShareRequirement = v.Ownership().GreaterThanOrEqual(p.SharesRequirementPercentage)
		d.MaxLoanAmount = MaxLoanAmount(v.UserValue, p)
	}

	d.CanApply = !h.HasDefaulted &&
		(!p.BlockMultipleActiveLoans || !h.HasActive) &&
		(!p.RequireNoDefaultedLoans || !h.HasDefaulted) &&
		d.MeetsShareRequirement
	return d
}

// MaxLoanAmount is the largest principal that shareValue still covers at the required
// percentage. Without a usable percentage it falls back to the policy maximum.
func MaxLoanAmount(shareValue decimal.Decimal, p config.Policy) decimal.Decimal {
	if !p.SharesRequirementEnabled || !p.SharesRequirementPercentage.IsPositive() {
		return p.MaximumLoanAmount
	}
	return money.Round(shareValue.Mul(decimal.NewFromInt(100)).Div(p.SharesRequirementPercentage))
}

// Snapshot reads the borrower's loan history and share valuation through r, so callers
// inside a transaction see the same rows they are about to write against.
func Snapshot(ctx context.Context, r uow.Repos, userID string) (loan.History, share.Valuation, error) {
	h, err := r.Loans.History(ctx, userID)
	if err != nil {
		return h, share.Valuation{}, apperr.Wrap(err, "load loan history")
	}
	holdings, err := r.Holdings.ListByUser(ctx, userID)
	if err != nil {
		return h, share.Valuation{}, apperr.Wrap(err, "load holdings")
	}
	offerings, err := r.Offerings.List(ctx)
	if err != nil {
		return h, share.Valuation{}, apperr.Wrap(err, "load share offerings")
	}
	return h, share.Value(holdings, offerings), nil
}

type Usecase struct {
	uow    uow.UnitOfWork
	policy config.Policy
	log    *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, policy config.Policy, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, policy: policy, log: log}
}

// Details evaluates the borrower against live data. Nothing is cached between calls.
func (u *Usecase) Details(ctx context.Context, userID string) (*Details, error) {
	if userID == "" {
		return nil, apperr.Validation("user_id", "user id is required")
	}
	var out Details
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		h, v, err := Snapshot(ctx, r, userID)
		if err != nil {
			return err
		}
		out = Evaluate(h, v, u.policy)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.For(ctx, u.log).Debug("eligibility evaluated",
		zap.Bool("can_apply", out.CanApply),
		zap.String("total_share_value", out.TotalShareValue.String()),
	)
	return &out, nil
}
