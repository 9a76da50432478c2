package installment

import (
	"time"

	"github.com/shopspring/decimal"

	"loanledger/internal/domain/apperr"
	"loanledger/internal/domain/loan"
	"loanledger/pkg/clock"
	"loanledger/pkg/money"
)

var (
	ErrNotFound    = apperr.NotFound("installment not found")
	ErrAlreadyPaid = apperr.InvalidState("installment is already paid")
)

// DueDate returns the due date of the i-th installment (0-based) counted from first.
func DueDate(first time.Time, freq loan.Frequency, i int) time.Time {
	switch freq {
	case loan.FrequencyWeekly:
		return first.AddDate(0, 0, 7*i)
	case loan.FrequencyBiweekly:
		return first.AddDate(0, 0, 14*i)
	default:
		return clock.AddMonths(first, i)
	}
}

// BuildSchedule lays out l.TotalInstallments rows. Every row carries the rounded
// installment amount except the last, which takes the remainder so the rows sum to
// l.TotalPayable exactly. Principal is split the same way and interest is the rest.
func BuildSchedule(l *loan.Loan) []Installment {
	n := l.TotalInstallments
	if n <= 0 {
		return nil
	}
	each, last := money.Split(l.TotalPayable, n)
	pEach, pLast := money.Split(l.Amount, n)

	rows := make([]Installment, 0, n)
	remaining := l.TotalPayable
	for i := 0; i < n; i++ {
		amount, principal := each, pEach
		if i == n-1 {
			amount, principal = last, pLast
		}
		remaining = remaining.Sub(amount)
		rows = append(rows, Installment{
			LoanID:           l.ID,
			Number:           i + 1,
			Amount:           amount,
			PrincipalAmount:  principal,
			InterestAmount:   amount.Sub(principal),
			AmountPaid:       decimal.Zero,
			RemainingBalance: money.NonNegative(remaining),
			DueDate:          DueDate(l.FirstPaymentDate, l.PaymentFrequency, i),
			Status:           StatusPending,
		})
	}
	return rows
}

// Outstanding is what is still owed on the row.
func (i *Installment) Outstanding() decimal.Decimal {
	return money.NonNegative(i.Amount.Sub(i.AmountPaid))
}

// IsOverdue: unpaid and due before the start of now's day.
func (i *Installment) IsOverdue(now time.Time) bool {
	return i.Status != StatusPaid && i.DueDate.Before(clock.StartOfDay(now))
}

// Apply puts up to amount toward the row and returns how much it consumed.
func (i *Installment) Apply(amount decimal.Decimal, now time.Time) decimal.Decimal {
	if i.Status == StatusPaid || !amount.IsPositive() {
		return decimal.Zero
	}
	used := decimal.Min(amount, i.Outstanding())
	i.AmountPaid = i.AmountPaid.Add(used)
	if i.AmountPaid.GreaterThanOrEqual(i.Amount) {
		i.Status = StatusPaid
	} else {
		i.Status = StatusPartial
	}
	paid := now
	i.PaidDate = &paid
	return used
}

// Allocate walks rows in order and applies amount to each open one until it runs out.
// It returns the touched rows and whatever could not be placed.
func Allocate(rows []Installment, amount decimal.Decimal, now time.Time) (touched []*Installment, leftover decimal.Decimal) {
	leftover = amount
	for k := range rows {
		if !leftover.IsPositive() {
			break
		}
		r := &rows[k]
		if r.Status == StatusPaid {
			continue
		}
		leftover = leftover.Sub(r.Apply(leftover, now))
		touched = append(touched, r)
	}
	return touched, leftover
}
