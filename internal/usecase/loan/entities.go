package loan

import (
	"time"

	"github.com/shopspring/decimal"

	domain "loanledger/internal/domain/loan"
)

type ApplyInput struct {
	UserID     string
	Amount     decimal.Decimal
	TermMonths int
	Purpose    string
	LoanType   string
}

type LoanDTO struct {
	LoanNumber        string          `json:"loan_number"`
	UserID            string          `json:"user_id"`
	LoanType          string          `json:"loan_type"`
	Amount            decimal.Decimal `json:"amount"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	TotalPayable      decimal.Decimal `json:"total_payable"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	TermMonths        int             `json:"term_months"`
	TotalInstallments int             `json:"total_installments"`
	PaidInstallments  int             `json:"paid_installments"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	PaymentFrequency  string          `json:"payment_frequency"`
	DisbursementDate  time.Time       `json:"disbursement_date"`
	FirstPaymentDate  time.Time       `json:"first_payment_date"`
	ExpectedEndDate   time.Time       `json:"expected_end_date"`
	Status            string          `json:"status"`
	Purpose           string          `json:"purpose"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func NewDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanNumber:        l.LoanNumber,
		UserID:            l.UserID,
		LoanType:          l.LoanType,
		Amount:            l.Amount,
		InterestRate:      l.InterestRate,
		TotalPayable:      l.TotalPayable,
		TotalPaid:         l.TotalPaid,
		RemainingBalance:  l.RemainingBalance,
		TermMonths:        l.TermMonths,
		TotalInstallments: l.TotalInstallments,
		PaidInstallments:  l.PaidInstallments,
		InstallmentAmount: l.InstallmentAmount(),
		PaymentFrequency:  string(l.PaymentFrequency),
		DisbursementDate:  l.DisbursementDate,
		FirstPaymentDate:  l.FirstPaymentDate,
		ExpectedEndDate:   l.ExpectedEndDate,
		Status:            string(l.Status),
		Purpose:           l.Purpose,
		Notes:             l.Notes,
		CreatedAt:         l.CreatedAt,
	}
}
