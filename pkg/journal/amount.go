package journal

import (
	"github.com/shopspring/decimal"
)

// Amount wraps decimal.Decimal for monetary values and ratios. It marshals
// to an unquoted JSON number carrying every stored digit, so documents keep
// the exact value they were written with.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON outputs the exact decimal as a JSON number (not a string).
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// Equal reports whether a and b hold the same numeric value.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

// Float returns the value as float64.
func (a Amount) Float() float64 {
	f, _ := a.Decimal.Float64()
	return f
}

// NewAmount creates an Amount from a float64.
func NewAmount(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// NewAmountFromInt creates an Amount from an int64.
func NewAmountFromInt(i int64) Amount {
	return Amount{decimal.NewFromInt(i)}
}

// ParseAmount parses a decimal string such as "1.0750".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{d}, nil
}

// AmountPtr returns a pointer to v.
func AmountPtr(v Amount) *Amount {
	return &v
}
