package money

import "github.com/shopspring/decimal"

// Amount is a monetary quantity in minor units (two fractional digits).
// Arithmetic on minor units is plain integer arithmetic, so repeated
// deposits and withdrawals cannot accumulate binary-float drift.
type Amount int64

// FromFloat converts a float amount to minor units, rounding to two
// decimals. The conversion goes through decimal so that the binary
// representation of user input does not leak into the result.
func FromFloat(v float64) Amount {
	return Amount(decimal.NewFromFloat(v).Round(2).Shift(2).IntPart())
}

// Float64 reports the amount in major units.
func (a Amount) Float64() float64 {
	f, _ := decimal.New(int64(a), -2).Float64()
	return f
}

// String formats the amount with two decimals, e.g. "10.50".
func (a Amount) String() string {
	return decimal.New(int64(a), -2).StringFixed(2)
}
