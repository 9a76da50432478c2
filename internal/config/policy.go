package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Policy is the read-only money settings consulted by the loan and share engines.
// Percentages are whole percents (5 means 5%).
type Policy struct {
	LoansEnabled bool `yaml:"loans_enabled"`

	MinimumLoanAmount decimal.Decimal `yaml:"minimum_loan_amount"`
	MaximumLoanAmount decimal.Decimal `yaml:"maximum_loan_amount"`

	DefaultInterestRate decimal.Decimal `yaml:"default_interest_rate"`
	MinimumInterestRate decimal.Decimal `yaml:"minimum_interest_rate"`
	MaximumInterestRate decimal.Decimal `yaml:"maximum_interest_rate"`

	MinimumLoanTermMonths int `yaml:"minimum_loan_term_months"`
	MaximumLoanTermMonths int `yaml:"maximum_loan_term_months"`

	SharesRequirementEnabled    bool            `yaml:"shares_requirement_enabled"`
	SharesRequirementPercentage decimal.Decimal `yaml:"shares_requirement_percentage"`

	// BlockMultipleActiveLoans rejects an application while another loan is still open.
	BlockMultipleActiveLoans bool `yaml:"block_multiple_active_loans"`
	RequireNoDefaultedLoans  bool `yaml:"require_no_defaulted_loans"`

	SharesEnabled          bool            `yaml:"shares_enabled"`
	MinimumShareAmount     decimal.Decimal `yaml:"minimum_share_amount"`
	MaximumShareAmount     decimal.Decimal `yaml:"maximum_share_amount"`
	ShareSaleFeePercentage decimal.Decimal `yaml:"share_sale_fee_percentage"`
}

func DefaultPolicy() Policy {
	return Policy{
		LoansEnabled:                true,
		MinimumLoanAmount:           decimal.NewFromInt(1000),
		MaximumLoanAmount:           decimal.NewFromInt(100000),
		DefaultInterestRate:         decimal.NewFromInt(5),
		MinimumInterestRate:         decimal.NewFromInt(1),
		MaximumInterestRate:         decimal.NewFromInt(30),
		MinimumLoanTermMonths:       6,
		MaximumLoanTermMonths:       60,
		SharesRequirementEnabled:    true,
		SharesRequirementPercentage: decimal.NewFromInt(30),
		BlockMultipleActiveLoans:    true,
		RequireNoDefaultedLoans:     true,
		SharesEnabled:               true,
		MinimumShareAmount:          decimal.NewFromInt(100),
		MaximumShareAmount:          decimal.NewFromInt(1000000),
		ShareSaleFeePercentage:      decimal.Zero,
	}
}

// LoadPolicy reads path over DefaultPolicy, so a file only needs the keys it changes.
// An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read policy %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	switch {
	case p.MinimumLoanAmount.IsNegative():
		return fmt.Errorf("minimum_loan_amount must not be negative")
	case p.MaximumLoanAmount.LessThan(p.MinimumLoanAmount):
		return fmt.Errorf("maximum_loan_amount %s below minimum_loan_amount %s", p.MaximumLoanAmount, p.MinimumLoanAmount)
	case p.MinimumLoanTermMonths < 1:
		return fmt.Errorf("minimum_loan_term_months must be at least 1")
	case p.MaximumLoanTermMonths < p.MinimumLoanTermMonths:
		return fmt.Errorf("maximum_loan_term_months %d below minimum_loan_term_months %d", p.MaximumLoanTermMonths, p.MinimumLoanTermMonths)
	case p.MaximumInterestRate.LessThan(p.MinimumInterestRate):
		return fmt.Errorf("maximum_interest_rate below minimum_interest_rate")
	case p.DefaultInterestRate.LessThan(p.MinimumInterestRate) || p.DefaultInterestRate.GreaterThan(p.MaximumInterestRate):
		return fmt.Errorf("default_interest_rate %s outside [%s, %s]", p.DefaultInterestRate, p.MinimumInterestRate, p.MaximumInterestRate)
	case p.SharesRequirementEnabled && !p.SharesRequirementPercentage.IsPositive():
		return fmt.Errorf("shares_requirement_percentage must be positive when the requirement is enabled")
	case p.MaximumShareAmount.LessThan(p.MinimumShareAmount):
		return fmt.Errorf("maximum_share_amount below minimum_share_amount")
	case p.ShareSaleFeePercentage.IsNegative() || p.ShareSaleFeePercentage.GreaterThanOrEqual(decimal.NewFromInt(100)):
		return fmt.Errorf("share_sale_fee_percentage must be in [0, 100)")
	}
	return nil
}
