package repayment

import (
	"time"

	"github.com/shopspring/decimal"

	"loanledger/internal/domain/installment"
	"loanledger/internal/domain/ledger"
	loanuc "loanledger/internal/usecase/loan"
)

// PaymentInput is a general payment against a loan. An empty UserID skips the
// ownership check (admin and collections callers).
type PaymentInput struct {
	UserID      string
	LoanNumber  string
	Amount      decimal.Decimal
	Method      string
	Description string
}

type InstallmentPaymentInput struct {
	PaymentInput
	InstallmentNumber int
}

type InstallmentDTO struct {
	Number           int             `json:"installment_number"`
	DueDate          time.Time       `json:"due_date"`
	Amount           decimal.Decimal `json:"amount"`
	PrincipalAmount  decimal.Decimal `json:"principal_amount"`
	InterestAmount   decimal.Decimal `json:"interest_amount"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PaidDate         *time.Time      `json:"paid_date,omitempty"`
	Status           string          `json:"status"`
	Overdue          bool            `json:"overdue"`
}

func newInstallmentDTO(i *installment.Installment, now time.Time) InstallmentDTO {
	return InstallmentDTO{
		Number:           i.Number,
		DueDate:          i.DueDate,
		Amount:           i.Amount,
		PrincipalAmount:  i.PrincipalAmount,
		InterestAmount:   i.InterestAmount,
		AmountPaid:       i.AmountPaid,
		Outstanding:      i.Outstanding(),
		RemainingBalance: i.RemainingBalance,
		PaidDate:         i.PaidDate,
		Status:           string(i.Status),
		Overdue:          i.IsOverdue(now),
	}
}

type PaymentDTO struct {
	Loan         *loanuc.LoanDTO     `json:"loan"`
	Transaction  *ledger.Transaction `json:"transaction"`
	Installments []InstallmentDTO    `json:"installments"`
}

type ScheduleDTO struct {
	Loan         *loanuc.LoanDTO      `json:"loan"`
	Installments []InstallmentDTO     `json:"installments"`
	Transactions []ledger.Transaction `json:"transactions"`
}
