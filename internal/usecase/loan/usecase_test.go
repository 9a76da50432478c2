package loan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"loanledger/internal/adapter/repository/mysql"
	"loanledger/internal/config"
	"loanledger/internal/domain/apperr"
	domain "loanledger/internal/domain/loan"
	"loanledger/internal/domain/share"
	"loanledger/internal/domain/uow"
	"loanledger/internal/testutil/sqlitedb"
	"loanledger/internal/testutil/uowmock"
	"loanledger/pkg/clock"
	"loanledger/pkg/id"
)

var now = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	db  *gorm.DB
	uow *mysql.GormUoW
	uc  *Usecase
}

func newFixture(t *testing.T, policy config.Policy) *fixture {
	t.Helper()
	db := sqlitedb.Open(t)
	tx := mysql.NewGormUoW(db)
	return &fixture{db: db, uow: tx, uc: NewUsecase(tx, policy, clock.Fixed{T: now}, zaptest.NewLogger(t))}
}

// giveShares creates a fresh offering priced at 100 and hands the user value/100 shares.
func (f *fixture) giveShares(t *testing.T, user string, value int64) {
	t.Helper()
	ctx := context.Background()
	qty := value / 100
	s := &share.Share{Name: "pool", TotalShares: 1000, AvailableShares: 1000 - qty, PricePerShare: dec("100"), IsActive: true}
	require.NoError(t, mysql.NewOfferingRepository(f.db).Create(ctx, s))
	h := &share.Holding{UserID: user, ShareID: s.ID}
	h.Add(qty, s.Cost(qty))
	require.NoError(t, mysql.NewHoldingRepository(f.db).Create(ctx, h))
}

func (f *fixture) seedLoan(t *testing.T, user string, status domain.Status, seq int) {
	t.Helper()
	l := domain.New(domain.NumberFor(2024, seq), domain.Terms{UserID: user, Amount: dec("1000"), Rate: dec("5"), TermMonths: 6}, now.AddDate(-1, 0, 0))
	l.Status = status
	require.NoError(t, mysql.NewLoanRepository(f.db).Create(context.Background(), l))
}

func applyInput(user, amount string, term int) ApplyInput {
	return ApplyInput{UserID: user, Amount: dec(amount), TermMonths: term, Purpose: "car", LoanType: "personal"}
}

func TestApply_ScenarioA_Succeeds(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	user := id.NewID32()
	f.giveShares(t, user, 3000)

	dto, err := f.uc.Apply(context.Background(), applyInput(user, "9000", 12))
	require.NoError(t, err)

	assert.Equal(t, "LN2025000001", dto.LoanNumber)
	assert.Equal(t, string(domain.StatusPending), dto.Status)
	assert.True(t, dec("5").Equal(dto.InterestRate))
	assert.True(t, dec("9450").Equal(dto.TotalPayable), "total payable %s", dto.TotalPayable)
	assert.True(t, dec("9450").Equal(dto.RemainingBalance))
	assert.True(t, dto.TotalPaid.IsZero())
	assert.Equal(t, 12, dto.TotalInstallments)
	assert.Equal(t, 0, dto.PaidInstallments)
	assert.Equal(t, "monthly", dto.PaymentFrequency)
	assert.Equal(t, now, dto.DisbursementDate)
	assert.Equal(t, time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC), dto.FirstPaymentDate)
	assert.Equal(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC), dto.ExpectedEndDate)

	stored, err := mysql.NewLoanRepository(f.db).GetByNumber(context.Background(), dto.LoanNumber)
	require.NoError(t, err)
	assert.True(t, dec("9450").Equal(stored.TotalPayable))
}

func TestApply_ScenarioB_CollateralShort(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	user := id.NewID32()
	f.giveShares(t, user, 2000)

	_, err := f.uc.Apply(context.Background(), applyInput(user, "9000", 12))
	require.ErrorIs(t, err, ErrShareRequirement)
	assert.True(t, errors.Is(err, apperr.ErrIneligible))

	var n int64
	f.db.Model(&domain.Loan{}).Count(&n)
	assert.Zero(t, n, "no loan may be created")
}

func TestApply_GuardOrder(t *testing.T) {
	disabled := config.DefaultPolicy()
	disabled.LoansEnabled = false

	tests := []struct {
		name      string
		policy    config.Policy
		in        ApplyInput
		wantKind  apperr.Kind
		wantField string
	}{
		{"disabled beats bad amount", disabled, applyInput("u", "1", 1), apperr.KindFeatureDisabled, ""},
		{"scenario C amount below minimum before collateral", config.DefaultPolicy(), applyInput("u", "500", 12), apperr.KindValidation, "amount"},
		{"amount above maximum", config.DefaultPolicy(), applyInput("u", "100000.01", 12), apperr.KindValidation, "amount"},
		{"amount checked before term", config.DefaultPolicy(), applyInput("u", "999.99", 1), apperr.KindValidation, "amount"},
		{"term below minimum", config.DefaultPolicy(), applyInput("u", "9000", 5), apperr.KindValidation, "term_months"},
		{"term above maximum", config.DefaultPolicy(), applyInput("u", "9000", 61), apperr.KindValidation, "term_months"},
		{"purpose required", config.DefaultPolicy(), ApplyInput{UserID: "u", Amount: dec("9000"), TermMonths: 12, Purpose: "  "}, apperr.KindValidation, "purpose"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			// The unit of work must never be reached.
			uc := NewUsecase(uowmock.New(), tt.policy, clock.Fixed{T: now}, nil)
			_, err := uc.Apply(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err), "err=%v", err)
			assert.Equal(t, tt.wantField, apperr.FieldOf(err))
		})
	}
}

func TestApply_Boundaries(t *testing.T) {
	p := config.DefaultPolicy()
	p.SharesRequirementEnabled = false
	p.BlockMultipleActiveLoans = false
	f := newFixture(t, p)
	user := id.NewID32()

	_, err := f.uc.Apply(context.Background(), applyInput(user, "1000", 6))
	require.NoError(t, err)
	_, err = f.uc.Apply(context.Background(), applyInput(user, "100000", 60))
	require.NoError(t, err)
}

func TestApply_StandingGuards(t *testing.T) {
	tests := []struct {
		name    string
		policy  func(p *config.Policy)
		history domain.Status
		wantErr error
	}{
		{"defaulted loan blocks", nil, domain.StatusDefaulted, ErrHasDefaultedLoans},
		{"active loan blocks", nil, domain.StatusActive, ErrHasActiveLoan},
		{"pending loan counts as active", nil, domain.StatusPending, ErrHasActiveLoan},
		{"completed loan is fine", nil, domain.StatusCompleted, nil},
		{"active allowed when not blocked", func(p *config.Policy) { p.BlockMultipleActiveLoans = false }, domain.StatusActive, nil},
		{"defaulted allowed when not required", func(p *config.Policy) { p.RequireNoDefaultedLoans = false }, domain.StatusDefaulted, nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p := config.DefaultPolicy()
			if tt.policy != nil {
				tt.policy(&p)
			}
			f := newFixture(t, p)
			user := id.NewID32()
			f.giveShares(t, user, 3000)
			f.seedLoan(t, user, tt.history, 1)

			_, err := f.uc.Apply(context.Background(), applyInput(user, "9000", 12))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.Is(err, apperr.ErrIneligible))
		})
	}
}

func TestApply_CollateralCheckedBeforeHistory(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	user := id.NewID32()
	f.giveShares(t, user, 1000)
	f.seedLoan(t, user, domain.StatusDefaulted, 1)

	_, err := f.uc.Apply(context.Background(), applyInput(user, "9000", 12))
	require.ErrorIs(t, err, ErrShareRequirement)
}

func TestApply_SequenceContinuesFromExistingLoans(t *testing.T) {
	p := config.DefaultPolicy()
	p.SharesRequirementEnabled = false
	f := newFixture(t, p)
	ctx := context.Background()

	// Two loans numbered this year before the counter row existed.
	repo := mysql.NewLoanRepository(f.db)
	for seq := 1; seq <= 2; seq++ {
		l := domain.New(domain.NumberFor(2025, seq), domain.Terms{UserID: id.NewID32(), Amount: dec("1000"), Rate: dec("5"), TermMonths: 6}, now)
		l.Status = domain.StatusCompleted
		require.NoError(t, repo.Create(ctx, l))
	}

	a, err := f.uc.Apply(ctx, applyInput(id.NewID32(), "2000", 6))
	require.NoError(t, err)
	b, err := f.uc.Apply(ctx, applyInput(id.NewID32(), "2000", 6))
	require.NoError(t, err)
	assert.Equal(t, "LN2025000003", a.LoanNumber)
	assert.Equal(t, "LN2025000004", b.LoanNumber)
}

func TestApply_ConcurrentApplicationsGetDistinctNumbers(t *testing.T) {
	p := config.DefaultPolicy()
	p.SharesRequirementEnabled = false
	f := newFixture(t, p)

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dto, err := f.uc.Apply(context.Background(), applyInput(id.NewID32(), "5000", 12))
			if err != nil {
				errs <- err
				return
			}
			numbers <- dto.LoanNumber
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("apply failed: %v", err)
	}
	seen := map[string]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "duplicate loan number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("LN2025%06d", i)], "missing sequence %d", i)
	}
}

func TestApply_SameUserConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	user := id.NewID32()
	f.giveShares(t, user, 3000)

	const n = 5
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Apply(context.Background(), applyInput(user, "9000", 12))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrHasActiveLoan)
	}
	assert.Equal(t, 1, ok)
}

func TestApply_RetriesOnConflict(t *testing.T) {
	p := config.DefaultPolicy()
	p.SharesRequirementEnabled = false
	f := newFixture(t, p)

	calls := 0
	flaky := &uowmock.UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("%w: %w", uow.ErrConflict, gorm.ErrDuplicatedKey)
			}
			return f.uow.WithinTx(ctx, fn)
		},
	}
	uc := NewUsecase(flaky, p, clock.Fixed{T: now}, nil)
	dto, err := uc.Apply(context.Background(), applyInput(id.NewID32(), "5000", 12))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "LN2025000001", dto.LoanNumber)

	calls = 0
	always := &uowmock.UoW{
		WithinTxFn: func(context.Context, func(uow.Repos) error) error {
			calls++
			return uow.ErrConflict
		},
	}
	_, err = NewUsecase(always, p, clock.Fixed{T: now}, nil).Apply(context.Background(), applyInput(id.NewID32(), "5000", 12))
	require.ErrorIs(t, err, uow.ErrConflict)
	assert.Equal(t, maxApplyAttempts, calls)
}

func TestGetAndList(t *testing.T) {
	p := config.DefaultPolicy()
	p.SharesRequirementEnabled = false
	f := newFixture(t, p)
	ctx := context.Background()
	owner := id.NewID32()

	dto, err := f.uc.Apply(ctx, applyInput(owner, "5000", 12))
	require.NoError(t, err)

	got, err := f.uc.Get(ctx, owner, dto.LoanNumber)
	require.NoError(t, err)
	assert.Equal(t, dto.LoanNumber, got.LoanNumber)
	assert.True(t, dec("437.5").Equal(got.InstallmentAmount), "installment %s", got.InstallmentAmount)

	_, err = f.uc.Get(ctx, id.NewID32(), dto.LoanNumber)
	require.ErrorIs(t, err, domain.ErrNotFound, "other borrowers must not see the loan")

	_, err = f.uc.Get(ctx, "", dto.LoanNumber)
	require.NoError(t, err)

	_, err = f.uc.Get(ctx, owner, "LN2025999999")
	require.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.uc.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, dto.LoanNumber, list[0].LoanNumber)
}
