/*
money.go - Fixed-point monetary amounts

PURPOSE:
  Every amount in the custody ledger is fixed-point decimal with two
  fractional digits. Binary floating point is never used for money:
  summing a long fact stream with float64 drifts, and this ledger
  exists to prevent drift.

ROUNDING:
  Derived values (gross pay, net pay, variances) are rounded to cents
  once, at the point of persistence, and never re-derived afterward.
  Use Round2() at that boundary only.

SEE ALSO:
  - types.go: fact records carrying Money fields
  - safe/vault.go: balance replay over Money streams
*/
package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// MONEY - Two-decimal fixed-point amount
// =============================================================================

// Money is a fixed-point monetary amount backed by decimal.Decimal.
// The zero value is $0.00.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

// Cents builds a Money from an integer number of cents.
func Cents(c int64) Money {
	return Money{Value: decimal.New(c, -2)}
}

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

func Zero() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) Mul(d decimal.Decimal) Money    { return Money{Value: m.Value.Mul(d)} }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }

// Round2 rounds to cents. Applied once, at persistence.
func (m Money) Round2() Money { return Money{Value: m.Value.Round(2)} }

// String renders with exactly two fractional digits, e.g. "450.00".
func (m Money) String() string { return m.Value.StringFixed(2) }

// MarshalJSON renders Money as a JSON string to keep clients away from
// float parsing.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.Value = d
	return nil
}
