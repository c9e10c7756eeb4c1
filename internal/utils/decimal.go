package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const decimalPlaces = 2

// Decimal is a monetary amount held to two decimal places. The backend serialises
// decimals as strings ("1500.00") but older endpoints send plain numbers; both decode.
// The zero value is 0.00.
type Decimal struct {
	value decimal.Decimal
}

// fixed rounds d to cents. Zero is always the zero value so equal amounts compare equal.
func fixed(d decimal.Decimal) Decimal {
	d = d.Round(decimalPlaces)
	if d.IsZero() {
		return Decimal{}
	}
	return Decimal{value: d}
}

func NewDecimal(units int64) Decimal {
	return fixed(decimal.NewFromInt(units))
}

// DecimalFromFloat converts a float, e.g. a command line flag, rounding to cents
func DecimalFromFloat(f float64) Decimal {
	return fixed(decimal.NewFromFloat(f))
}

func ParseDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return fixed(d), nil
}

// MustDecimal is ParseDecimal for literals. It panics on malformed input.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) Add(o Decimal) Decimal {
	return fixed(d.value.Add(o.value))
}

func (d Decimal) Sub(o Decimal) Decimal {
	return fixed(d.value.Sub(o.value))
}

// Cmp returns -1, 0 or +1 as d is less than, equal to or greater than o
func (d Decimal) Cmp(o Decimal) int {
	return d.value.Cmp(o.value)
}

func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

func (d Decimal) IsPositive() bool {
	return d.value.IsPositive()
}

// Float64 is for display and tag validation only, never for arithmetic
func (d Decimal) Float64() float64 {
	return d.value.InexactFloat64()
}

func (d Decimal) String() string {
	return d.value.StringFixed(decimalPlaces)
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Decimal{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*d = Decimal{}
			return nil
		}
		parsed, err := ParseDecimal(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("invalid decimal %s: %w", data, err)
	}
	parsed, err := ParseDecimal(number.String())
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
