package numeric

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a signed decimal value read from a statement cell. The zero value
// is an empty cell, which is distinct from an explicit zero.
type Amount struct {
	dec   decimal.Decimal
	valid bool
}

// NewAmount wraps d as a present value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{dec: d, valid: true}
}

// Zero returns an explicit zero.
func Zero() Amount {
	return NewAmount(decimal.Zero)
}

// IsEmpty reports whether the cell had no value.
func (a Amount) IsEmpty() bool {
	return !a.valid
}

// IsZero reports whether the amount is present and equal to zero.
func (a Amount) IsZero() bool {
	return a.valid && a.dec.IsZero()
}

// Decimal returns the value, or zero for an empty amount.
func (a Amount) Decimal() decimal.Decimal {
	if !a.valid {
		return decimal.Zero
	}
	return a.dec
}

func (a Amount) Float() float64 {
	f, _ := a.Decimal().Float64()
	return f
}

// Or returns a when present, otherwise fallback.
func (a Amount) Or(fallback Amount) Amount {
	if a.valid {
		return a
	}
	return fallback
}

// String renders the amount with the exponent it was parsed with, so
// "12.50" stays "12.50". Empty amounts render as "".
func (a Amount) String() string {
	if !a.valid {
		return ""
	}
	if exp := a.dec.Exponent(); exp < 0 {
		return a.dec.StringFixed(-exp)
	}
	return a.dec.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a JSON string, number or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid amount %s: %w", data, err)
		}
		*a = ParseAmount(s)
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = NewAmount(d)
	return nil
}

// Sum adds the present values of amounts. The result is always present.
func Sum(amounts ...Amount) Amount {
	total := decimal.Zero
	for _, a := range amounts {
		if a.valid {
			total = total.Add(a.dec)
		}
	}
	return NewAmount(total)
}
