// Package money holds the fixed-point helpers shared by the loan and share ledgers.
// Every amount is a decimal.Decimal with two places; nothing here uses float64.
package money

import "github.com/shopspring/decimal"

// Places is the number of fractional digits kept for stored amounts.
const Places int32 = 2

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal { return d.Round(Places) }

// Percent returns pct percent of base, unrounded.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Ratio returns part/whole*100, or zero when whole is not positive.
func Ratio(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Split divides total into n parts of Round(total/n); the last part absorbs the
// rounding remainder so that the parts always sum to total.
func Split(total decimal.Decimal, n int) (each, last decimal.Decimal) {
	if n <= 0 {
		return decimal.Zero, decimal.Zero
	}
	each = Round(total.Div(decimal.NewFromInt(int64(n))))
	last = total.Sub(each.Mul(decimal.NewFromInt(int64(n - 1))))
	return each, last
}
