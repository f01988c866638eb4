// Package money parses and formats exact decimal amounts. All monetary and
// quantity fields pass through here before persistence; floating point never
// enters the stored representation.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrMissing is returned when a required amount is absent from the payload.
var ErrMissing = errors.New("value missing")

// ErrInvalid is returned when a payload value is not numeric.
var ErrInvalid = errors.New("invalid decimal value")

// Parse converts a loosely-typed payload value (numeric string, json.Number
// or Go numeric) into an exact decimal. A nil value is ErrMissing, never a
// silent zero.
func Parse(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case nil:
		return decimal.Decimal{}, ErrMissing
	case json.Number:
		return fromString(string(val))
	case string:
		return fromString(val)
	case decimal.Decimal:
		return val, nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case float64:
		// Callers decode JSON with UseNumber, so this path only sees values
		// produced in-process.
		return fromString(strconv.FormatFloat(val, 'f', -1, 64))
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %T", ErrInvalid, v)
	}
}

// ParseOrZero is Parse with an absent value treated as zero. Used where the
// workflow defines an explicit zero default, such as intake valuation.
func ParseOrZero(v any) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, nil
	}
	return Parse(v)
}

// Format renders a decimal as canonical fixed-point text. Trailing
// fractional zeros are trimmed and scientific notation is never produced.
func Format(d decimal.Decimal) string {
	return d.String()
}

func fromString(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, ErrMissing
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return d, nil
}
