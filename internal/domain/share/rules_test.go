package share

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

var now = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func offering() *Share {
	return &Share{ID: 3, Name: "Coop A", TotalShares: 1000, AvailableShares: 900, PricePerShare: dec("100"), IsActive: true}
}

func TestCost(t *testing.T) {
	s := offering()
	assert.True(t, dec("1000").Equal(s.Cost(10)))
	assert.True(t, dec("100000").Equal(s.PoolValue()))
	s.PricePerShare = dec("0.333")
	assert.True(t, dec("3.33").Equal(s.Cost(10)))
}

func TestCheckPurchaseBounds(t *testing.T) {
	s := offering()
	assert.NoError(t, s.CheckPurchaseBounds(1))

	s.MinimumPurchase, s.MaximumPurchase = 5, 50
	assert.NoError(t, s.CheckPurchaseBounds(5))
	assert.NoError(t, s.CheckPurchaseBounds(50))

	err := s.CheckPurchaseBounds(4)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, "quantity", apperr.FieldOf(err))
	assert.True(t, errors.Is(s.CheckPurchaseBounds(51), apperr.ErrValidation))
}

func TestHolding_AddRemove(t *testing.T) {
	h := &Holding{UserID: "u", ShareID: 3}
	h.Add(10, dec("1000"))
	assert.EqualValues(t, 10, h.Quantity)
	assert.True(t, dec("100").Equal(h.PurchasePrice))

	h.Add(10, dec("1200"))
	assert.EqualValues(t, 20, h.Quantity)
	assert.True(t, dec("2200").Equal(h.TotalPaid))
	assert.True(t, dec("110").Equal(h.PurchasePrice))

	h.Remove(5)
	assert.EqualValues(t, 15, h.Quantity)
	assert.True(t, dec("1650").Equal(h.TotalPaid))

	h.Remove(15)
	assert.EqualValues(t, 0, h.Quantity)
	assert.True(t, h.TotalPaid.IsZero())
}

func TestSaleAmounts(t *testing.T) {
	fee, net := SaleAmounts(dec("500"), decimal.Zero)
	assert.True(t, fee.IsZero())
	assert.True(t, dec("500").Equal(net))

	fee, net = SaleAmounts(dec("333.33"), dec("1.5"))
	assert.True(t, dec("5").Equal(fee), "fee %s", fee)
	assert.True(t, dec("328.33").Equal(net), "net %s", net)
}

func TestNewBuyAndSell(t *testing.T) {
	s := offering()
	buy := NewBuy("u1", s, 10, now)
	assert.Equal(t, TxBuy, buy.Type)
	assert.Equal(t, TxCompleted, buy.Status)
	assert.Regexp(t, `^STX[A-F0-9]{32}$`, buy.TransactionID)
	assert.True(t, dec("1000").Equal(buy.TotalAmount))
	assert.True(t, dec("1000").Equal(buy.NetAmount))

	sell := NewSell("u1", s, 5, dec("2"))
	assert.Equal(t, TxSell, sell.Type)
	assert.Equal(t, TxPending, sell.Status)
	assert.True(t, dec("500").Equal(sell.TotalAmount))
	assert.True(t, dec("10").Equal(sell.FeeAmount))
	assert.True(t, dec("490").Equal(sell.NetAmount))
	assert.NotEqual(t, buy.TransactionID, sell.TransactionID)
}

func TestTransaction_Settle(t *testing.T) {
	s := offering()

	tx := NewSell("u1", s, 5, decimal.Zero)
	require.NoError(t, tx.Reject("admin", "   ", now))
	assert.Equal(t, TxRejected, tx.Status)
	assert.Equal(t, DefaultRejectReason, tx.Notes)
	assert.Equal(t, "admin", tx.ProcessedBy)
	require.NotNil(t, tx.ProcessedAt)

	require.ErrorIs(t, tx.Complete("admin", now), ErrNotPendingSale)

	tx = NewSell("u1", s, 5, decimal.Zero)
	require.NoError(t, tx.Reject("admin", "price moved", now))
	assert.Equal(t, "price moved", tx.Notes)

	tx = NewSell("u1", s, 5, decimal.Zero)
	require.NoError(t, tx.Cancel("u1", now))
	assert.Equal(t, TxCancelled, tx.Status)

	buy := NewBuy("u1", s, 1, now)
	require.ErrorIs(t, buy.Complete("admin", now), ErrNotPendingSale)
}

func TestValue(t *testing.T) {
	offerings := []Share{
		{ID: 1, TotalShares: 1000, PricePerShare: dec("10")},
		{ID: 2, TotalShares: 500, PricePerShare: dec("20")},
	}
	holdings := []Holding{
		{ShareID: 1, Quantity: 100},
		{ShareID: 2, Quantity: 50},
		{ShareID: 99, Quantity: 1000},
	}
	v := Value(holdings, offerings)
	assert.True(t, dec("2000").Equal(v.UserValue), "user %s", v.UserValue)
	assert.True(t, dec("20000").Equal(v.PoolValue), "pool %s", v.PoolValue)
	assert.True(t, dec("10").Equal(v.OwnershipPercentage()))

	empty := Value(nil, nil)
	assert.True(t, empty.OwnershipPercentage().IsZero())
}

func TestValuation_OwnershipIsUnrounded(t *testing.T) {
	v := Valuation{UserValue: dec("2999.50"), PoolValue: dec("10000")}
	assert.True(t, dec("29.995").Equal(v.Ownership()), "got %s", v.Ownership())
	assert.True(t, dec("30").Equal(v.OwnershipPercentage()))
}
