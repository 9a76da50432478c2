package loan

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loanledger/internal/domain/apperr"
	"loanledger/pkg/clock"
	"loanledger/pkg/money"
)

var twelve = decimal.NewFromInt(12)

// transitions is the complete lifecycle graph. Anything not listed is refused.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusDisbursed},
	StatusDisbursed: {StatusActive, StatusCompleted, StatusDefaulted},
	StatusActive:    {StatusCompleted, StatusDefaulted},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether s still counts as an active loan.
func (s Status) IsOpen() bool {
	for _, o := range OpenStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// Repayable reports whether payments may be recorded in s.
func (s Status) Repayable() bool { return s == StatusDisbursed || s == StatusActive }

// NumberFor formats the public loan number, e.g. LN2025000042.
func NumberFor(year, seq int) string { return fmt.Sprintf("LN%04d%06d", year, seq) }

// NumberPrefix is the prefix shared by every loan number of year.
func NumberPrefix(year int) string { return fmt.Sprintf("LN%04d", year) }

// Interest is simple interest over the whole term: amount × rate% × term/12, rounded.
func Interest(amount, ratePct decimal.Decimal, termMonths int) decimal.Decimal {
	return money.Round(money.Percent(amount, ratePct).Mul(decimal.NewFromInt(int64(termMonths))).Div(twelve))
}

// InstallmentAmount is total/n rounded to cents, zero when n is not positive.
func InstallmentAmount(total decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return money.Round(total.Div(decimal.NewFromInt(int64(n))))
}

// PaidInstallmentsFor derives the paid installment count from the aggregate paid amount,
// capped at n. A loan paid in full counts every installment even when the rounded
// installment amount does not divide the total.
func PaidInstallmentsFor(totalPaid, totalPayable, installment decimal.Decimal, n int) int {
	if totalPayable.IsPositive() && totalPaid.GreaterThanOrEqual(totalPayable) {
		return n
	}
	if !installment.IsPositive() {
		return 0
	}
	k := totalPaid.Div(installment).Floor().IntPart()
	if k > int64(n) {
		return n
	}
	return int(k)
}

// DeriveStatus advances a disbursed or active loan according to its balances.
func DeriveStatus(current Status, totalPaid, totalPayable, remaining decimal.Decimal) Status {
	if !current.Repayable() {
		return current
	}
	if !remaining.IsPositive() && totalPaid.GreaterThanOrEqual(totalPayable) {
		return StatusCompleted
	}
	if current == StatusDisbursed && totalPaid.IsPositive() {
		return StatusActive
	}
	return current
}

type Terms struct {
	UserID     string
	LoanType   string
	Purpose    string
	Amount     decimal.Decimal
	Rate       decimal.Decimal
	TermMonths int
}

// New builds a pending monthly loan numbered number, dated from now.
func New(number string, t Terms, now time.Time) *Loan {
	interest := Interest(t.Amount, t.Rate, t.TermMonths)
	payable := t.Amount.Add(interest)
	return &Loan{
		LoanNumber:        number,
		UserID:            t.UserID,
		LoanType:          t.LoanType,
		Purpose:           t.Purpose,
		Amount:            money.Round(t.Amount),
		InterestRate:      t.Rate,
		TotalPayable:      money.Round(payable),
		TotalPaid:         decimal.Zero,
		RemainingBalance:  money.Round(payable),
		TermMonths:        t.TermMonths,
		TotalInstallments: t.TermMonths,
		PaidInstallments:  0,
		PaymentFrequency:  FrequencyMonthly,
		DisbursementDate:  now,
		FirstPaymentDate:  clock.AddMonths(now, 1),
		ExpectedEndDate:   clock.AddMonths(now, t.TermMonths),
		Status:            StatusPending,
		StatusUpdatedAt:   now,
	}
}

func (l *Loan) InstallmentAmount() decimal.Decimal {
	return InstallmentAmount(l.TotalPayable, l.TotalInstallments)
}

func (l *Loan) moveTo(to Status, now time.Time) error {
	if !CanTransition(l.Status, to) {
		return ErrInvalidTransition
	}
	l.Status = to
	l.StatusUpdatedAt = now
	return nil
}

func (l *Loan) Approve(now time.Time) error {
	if l.Status != StatusPending {
		return ErrNotPending
	}
	return l.moveTo(StatusApproved, now)
}

func (l *Loan) Reject(reason string, now time.Time) error {
	if l.Status != StatusPending {
		return ErrNotPendingReject
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		l.appendNote("Rejection reason: " + reason)
	}
	return l.moveTo(StatusRejected, now)
}

func (l *Loan) Disburse(now time.Time) error {
	if l.Status != StatusApproved {
		return ErrNotApproved
	}
	return l.moveTo(StatusDisbursed, now)
}

func (l *Loan) MarkDefaulted(reason string, now time.Time) error {
	if !l.Status.Repayable() {
		return ErrNotDefaultable
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		l.appendNote("Default reason: " + reason)
	}
	return l.moveTo(StatusDefaulted, now)
}

// ApplyPayment books amount against the aggregate balances and advances the status.
func (l *Loan) ApplyPayment(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return apperr.Validation("amount", "payment amount must be greater than zero")
	}
	if !l.Status.Repayable() {
		return ErrNotRepayable
	}
	l.TotalPaid = money.Round(l.TotalPaid.Add(amount))
	l.RemainingBalance = money.NonNegative(l.TotalPayable.Sub(l.TotalPaid))
	l.PaidInstallments = PaidInstallmentsFor(l.TotalPaid, l.TotalPayable, l.InstallmentAmount(), l.TotalInstallments)

	if next := DeriveStatus(l.Status, l.TotalPaid, l.TotalPayable, l.RemainingBalance); next != l.Status {
		return l.moveTo(next, now)
	}
	return nil
}

func (l *Loan) appendNote(s string) {
	if l.Notes == "" {
		l.Notes = s
		return
	}
	l.Notes += "\n" + s
}
