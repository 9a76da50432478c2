package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanledger/internal/domain/apperr"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

var now = time.Date(2025, 1, 31, 9, 30, 0, 0, time.UTC)

func newLoan(amount string, term int) *Loan {
	return New(NumberFor(2025, 1), Terms{
		UserID:     "0123456789abcdef0123456789abcdef",
		LoanType:   "personal",
		Purpose:    "car",
		Amount:     dec(amount),
		Rate:       dec("5"),
		TermMonths: term,
	}, now)
}

func TestNumberFor(t *testing.T) {
	assert.Equal(t, "LN2025000001", NumberFor(2025, 1))
	assert.Equal(t, "LN2025123456", NumberFor(2025, 123456))
	assert.Equal(t, "LN2025", NumberPrefix(2025))
}

func TestInterest(t *testing.T) {
	tests := []struct {
		amount, rate string
		term         int
		want         string
	}{
		{"9000", "5", 12, "450"},
		{"9000", "5", 6, "225"},
		{"1000", "7.5", 18, "112.5"},
		{"1234.56", "3.3", 7, "23.77"},
	}
	for _, tt := range tests {
		assertDec(t, tt.want, Interest(dec(tt.amount), dec(tt.rate), tt.term), tt.amount)
	}
}

func TestNew_Origination(t *testing.T) {
	l := newLoan("9000", 12)

	assertDec(t, "9450", l.TotalPayable, "total payable")
	assertDec(t, "9450", l.RemainingBalance, "remaining")
	assert.True(t, l.TotalPaid.IsZero())
	assert.Equal(t, StatusPending, l.Status)
	assert.Equal(t, FrequencyMonthly, l.PaymentFrequency)
	assert.Equal(t, 12, l.TotalInstallments)
	assert.Equal(t, 0, l.PaidInstallments)
	assert.Equal(t, now, l.DisbursementDate)
	// Jan 31 + 1 month clamps to Feb 28.
	assert.Equal(t, time.Date(2025, 2, 28, 9, 30, 0, 0, time.UTC), l.FirstPaymentDate)
	assert.Equal(t, time.Date(2026, 1, 31, 9, 30, 0, 0, time.UTC), l.ExpectedEndDate)
	assertDec(t, "787.5", l.InstallmentAmount(), "installment")
}

func TestInstallmentAmount(t *testing.T) {
	assertDec(t, "787.5", InstallmentAmount(dec("9450"), 12), "even")
	assertDec(t, "33.33", InstallmentAmount(dec("100"), 3), "uneven")
	assert.True(t, InstallmentAmount(dec("100"), 0).IsZero())
	assert.True(t, InstallmentAmount(dec("100"), -2).IsZero())
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusApproved, StatusDisbursed},
		{StatusDisbursed, StatusActive},
		{StatusDisbursed, StatusDefaulted},
		{StatusActive, StatusCompleted},
		{StatusActive, StatusDefaulted},
	}
	for _, p := range allowed {
		assert.True(t, CanTransition(p[0], p[1]), "%s -> %s", p[0], p[1])
	}
	refused := [][2]Status{
		{StatusPending, StatusDisbursed},
		{StatusApproved, StatusPending},
		{StatusRejected, StatusApproved},
		{StatusCompleted, StatusActive},
		{StatusDefaulted, StatusActive},
		{StatusPending, StatusDefaulted},
	}
	for _, p := range refused {
		assert.False(t, CanTransition(p[0], p[1]), "%s -> %s", p[0], p[1])
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name                     string
		cur                      Status
		paid, payable, remaining string
		want                     Status
	}{
		{"disbursed unpaid stays", StatusDisbursed, "0", "100", "100", StatusDisbursed},
		{"first payment activates", StatusDisbursed, "10", "100", "90", StatusActive},
		{"active partial stays", StatusActive, "50", "100", "50", StatusActive},
		{"active paid off completes", StatusActive, "100", "100", "0", StatusCompleted},
		{"overpaid completes", StatusActive, "120", "100", "0", StatusCompleted},
		{"disbursed paid in one go completes", StatusDisbursed, "100", "100", "0", StatusCompleted},
		{"pending untouched", StatusPending, "100", "100", "0", StatusPending},
		{"defaulted untouched", StatusDefaulted, "100", "100", "0", StatusDefaulted},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.cur, dec(tt.paid), dec(tt.payable), dec(tt.remaining))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLifecycleGuards(t *testing.T) {
	l := newLoan("9000", 12)

	require.ErrorIs(t, l.Disburse(now), ErrNotApproved)
	require.ErrorIs(t, l.MarkDefaulted("late", now), ErrNotDefaultable)
	require.NoError(t, l.Approve(now))
	assert.Equal(t, StatusApproved, l.Status)

	err := l.Approve(now)
	require.ErrorIs(t, err, ErrNotPending)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
	assert.Equal(t, "only pending loans can be approved", err.Error())

	require.ErrorIs(t, l.Reject("x", now), ErrNotPendingReject)
	require.NoError(t, l.Disburse(now))
	assert.Equal(t, StatusDisbursed, l.Status)

	require.NoError(t, l.MarkDefaulted("90 days late", now))
	assert.Equal(t, StatusDefaulted, l.Status)
	assert.Contains(t, l.Notes, "Default reason: 90 days late")
}

func TestReject_AppendsReason(t *testing.T) {
	l := newLoan("9000", 12)
	l.Notes = "first note"
	require.NoError(t, l.Reject("  insufficient income ", now))
	assert.Equal(t, StatusRejected, l.Status)
	assert.Equal(t, "first note\nRejection reason: insufficient income", l.Notes)
}

func TestApplyPayment(t *testing.T) {
	l := newLoan("9000", 12)
	require.ErrorIs(t, l.ApplyPayment(dec("100"), now), ErrNotRepayable)

	l.Status = StatusDisbursed
	err := l.ApplyPayment(decimal.Zero, now)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, "amount", apperr.FieldOf(err))

	require.NoError(t, l.ApplyPayment(dec("1000"), now))
	assert.Equal(t, StatusActive, l.Status)
	assertDec(t, "1000", l.TotalPaid, "paid")
	assertDec(t, "8450", l.RemainingBalance, "remaining")
	assert.Equal(t, 1, l.PaidInstallments)

	require.NoError(t, l.ApplyPayment(dec("575"), now))
	assert.Equal(t, 2, l.PaidInstallments)

	// Overpayment clamps the remaining balance at zero.
	require.NoError(t, l.ApplyPayment(dec("10000"), now))
	assertDec(t, "0", l.RemainingBalance, "remaining")
	assertDec(t, "11575", l.TotalPaid, "paid")
	assert.Equal(t, 12, l.PaidInstallments)
	assert.Equal(t, StatusCompleted, l.Status)

	require.ErrorIs(t, l.ApplyPayment(dec("1"), now), ErrNotRepayable)
}

func TestApplyPayment_BalanceInvariant(t *testing.T) {
	l := newLoan("1000", 6)
	l.Status = StatusDisbursed
	for _, p := range []string{"0.01", "99.99", "333.33", "250", "341.67"} {
		require.NoError(t, l.ApplyPayment(dec(p), now))
		want := decimal.Max(decimal.Zero, l.TotalPayable.Sub(l.TotalPaid))
		assert.True(t, want.Equal(l.RemainingBalance), "after %s: remaining %s", p, l.RemainingBalance)
		assert.Equal(t, l.TotalPaid.GreaterThanOrEqual(l.TotalPayable), l.Status == StatusCompleted)
	}
	assert.Equal(t, StatusCompleted, l.Status)
}

func TestPaidInstallmentsFor(t *testing.T) {
	tests := []struct {
		name                  string
		paid, payable, amount string
		n, want               int
	}{
		{"nothing paid", "0", "1000.05", "166.68", 6, 0},
		{"partial row", "300", "1000.05", "166.68", 6, 1},
		{"paid in full with rounded-up rows", "1000.05", "1000.05", "166.68", 6, 6},
		{"overpaid", "2000", "1000.05", "166.68", 6, 6},
		{"zero installment", "100", "0", "0", 6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PaidInstallmentsFor(dec(tt.paid), dec(tt.payable), dec(tt.amount), tt.n)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyPayment_CompletedCountsEveryInstallment(t *testing.T) {
	l := &Loan{
		TotalPayable:      dec("1000.05"),
		TotalPaid:         decimal.Zero,
		RemainingBalance:  dec("1000.05"),
		TotalInstallments: 6,
		Status:            StatusDisbursed,
	}
	assertDec(t, "166.68", l.InstallmentAmount(), "installment")

	require.NoError(t, l.ApplyPayment(dec("1000.05"), now))
	assert.Equal(t, StatusCompleted, l.Status)
	assert.Equal(t, 6, l.PaidInstallments)
}

func TestStatus_IsOpen(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusDisbursed, StatusActive} {
		assert.True(t, s.IsOpen(), s)
	}
	for _, s := range []Status{StatusRejected, StatusCompleted, StatusDefaulted} {
		assert.False(t, s.IsOpen(), s)
	}
}
