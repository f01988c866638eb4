package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvest-estate/gateway/money"
)

func TestParseAcceptedForms(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"json number", json.Number("123.45"), "123.45"},
		{"json number integer", json.Number("1000000"), "1000000"},
		{"string", "0.91", "0.91"},
		{"negative string", "-5.5", "-5.5"},
		{"int", 90, "90"},
		{"int64", int64(875000), "875000"},
		{"float64", float64(2.5), "2.5"},
		{"decimal passthrough", decimal.RequireFromString("42.1"), "42.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := money.Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, money.Format(d))
		})
	}
}

func TestParseRejectsMissingAndInvalid(t *testing.T) {
	_, err := money.Parse(nil)
	assert.ErrorIs(t, err, money.ErrMissing)

	_, err = money.Parse("")
	assert.ErrorIs(t, err, money.ErrMissing)

	_, err = money.Parse("not-a-number")
	assert.ErrorIs(t, err, money.ErrInvalid)

	_, err = money.Parse(json.Number("1.2.3"))
	assert.ErrorIs(t, err, money.ErrInvalid)

	_, err = money.Parse(struct{}{})
	assert.ErrorIs(t, err, money.ErrInvalid)
}

func TestParseOrZero(t *testing.T) {
	d, err := money.ParseOrZero(nil)
	require.NoError(t, err)
	assert.True(t, d.IsZero())
	assert.Equal(t, "0", money.Format(d))

	d, err = money.ParseOrZero(json.Number("7"))
	require.NoError(t, err)
	assert.Equal(t, "7", money.Format(d))

	_, err = money.ParseOrZero("garbage")
	assert.ErrorIs(t, err, money.ErrInvalid)
}

func TestFormatIsFixedPoint(t *testing.T) {
	// Large and tiny magnitudes must never render in scientific notation.
	d, err := money.Parse(json.Number("123450000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, "123450000000000000000", money.Format(d))

	d, err = money.Parse(json.Number("0.00000001"))
	require.NoError(t, err)
	assert.Equal(t, "0.00000001", money.Format(d))

	// Trailing fractional zeros are trimmed to the canonical form.
	d, err = money.Parse(json.Number("123.450"))
	require.NoError(t, err)
	assert.Equal(t, "123.45", money.Format(d))
}
