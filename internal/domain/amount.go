package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a currency value in BRL.
//
// The upstream API is loosely typed: monetary fields arrive as numbers,
// numeric strings, null, or are missing altogether. Amount decodes all of
// them and coerces anything that is not a number to zero, so a single bad
// row can never poison a sum. Parsed values are rounded to cents and must
// fit numeric(14,2); anything outside that range is also zero.
type Amount struct {
	d decimal.Decimal
}

// Exponent bounds are checked before any arithmetic on the parsed value.
const (
	amountMinExponent = -24
	amountMaxExponent = 12
)

var amountLimit = decimal.New(1, 12)

// sanitizeAmount rounds d to cents, or returns zero when d cannot be a
// stored money value.
func sanitizeAmount(d decimal.Decimal) Amount {
	exp := d.Exponent()
	if exp < amountMinExponent || exp > amountMaxExponent {
		return Amount{}
	}
	if d.Abs().Cmp(amountLimit) >= 0 {
		return Amount{}
	}
	return Amount{d: d.Round(2)}
}

// NewAmount builds an Amount from a float.
func NewAmount(v float64) Amount {
	return Amount{d: decimal.NewFromFloat(v)}
}

// AmountFromDecimal wraps an existing decimal.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// ParseAmount parses a numeric string leniently. Surrounding whitespace is
// ignored; empty, non-numeric or out-of-range input yields zero.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return sanitizeAmount(d)
}

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

func (a Amount) Float64() float64 {
	return a.d.InexactFloat64()
}

func (a Amount) String() string {
	return a.d.String()
}

// MarshalJSON always emits a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON never fails: null, booleans, objects, unparseable strings
// and out-of-range numbers all decode to zero.
func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		*a = Amount{}
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*a = Amount{}
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		*a = Amount{}
		return nil
	}
	*a = sanitizeAmount(d)
	return nil
}
