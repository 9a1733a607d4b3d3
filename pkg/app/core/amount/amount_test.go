package amount

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Amount
		wantErr bool
	}{
		{name: "integer", input: "2", want: 20000},
		{name: "one fractional digit", input: "1.5", want: 15000},
		{name: "four fractional digits", input: "10.4752", want: 104752},
		{name: "surrounding whitespace", input: "  3.25\t", want: 32500},
		{name: "smallest unit", input: "0.0001", want: 1},
		{name: "negative", input: "-1.25", want: -12500},
		{name: "trailing zeros beyond scale are exact", input: "1.50000", want: 15000},
		{name: "zero", input: "0.0", want: 0},
		{name: "five fractional digits", input: "1.00005", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty", input: "   ", wantErr: true},
		{name: "overflow", input: "99999999999999999999", wantErr: true},
		{name: "leading dot", input: ".25", want: 2500},
		{name: "exponent", input: "1e2", wantErr: true},
		{name: "negative exponent", input: "1E-4", wantErr: true},
		{name: "huge exponent", input: "1e900000000", wantErr: true},
		{name: "huge negative exponent", input: "1e-900000000", wantErr: true},
		{name: "thousands separator", input: "1,000", wantErr: true},
		{name: "sign only", input: "-", wantErr: true},
		{name: "too many digits", input: "0." + strings.Repeat("0", 100000) + "1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePositive(t *testing.T) {
	a, err := ParsePositive("0.0001")
	require.NoError(t, err)
	assert.Equal(t, Amount(1), a)

	_, err = ParsePositive("0")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParsePositive("-3")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestString(t *testing.T) {
	assert.Equal(t, "1.5000", MustParse("1.5").String())
	assert.Equal(t, "0.0000", Zero.String())
	assert.Equal(t, "-0.0001", Amount(-1).String())
	assert.Equal(t, "10.4752", MustParse("10.4752").String())
}

func TestArithmeticIsExact(t *testing.T) {
	// 0.1 added ten thousand times drifts in binary floating point
	step := MustParse("0.1")
	sum := Zero
	for i := 0; i < 10000; i++ {
		sum = sum.Add(step)
	}
	assert.Equal(t, MustParse("1000"), sum)

	for i := 0; i < 10000; i++ {
		sum = sum.Sub(step)
	}
	assert.True(t, sum.IsZero())
}

func TestCompare(t *testing.T) {
	a, b := MustParse("1.5"), MustParse("1.5000")
	assert.True(t, a.Equal(b))
	assert.True(t, a.GreaterOrEqual(b))
	assert.False(t, a.GreaterOrEqual(MustParse("2")))
	assert.True(t, a.GreaterOrEqual(Zero))
}

func TestCheckedAdd(t *testing.T) {
	sum, ok := Amount(1).CheckedAdd(2)
	require.True(t, ok)
	assert.Equal(t, Amount(3), sum)

	_, ok = Amount(1 << 62).CheckedAdd(Amount(1 << 62))
	assert.False(t, ok)
}

func TestDecimalRoundTrip(t *testing.T) {
	a := MustParse("123.4567")
	assert.True(t, a.Decimal().Equal(decimal.RequireFromString("123.4567")))

	back, err := Parse(a.Decimal().String())
	require.NoError(t, err)
	assert.Equal(t, a, back)
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(MustParse("2.5"))
	require.NoError(t, err)
	assert.JSONEq(t, `"2.5000"`, string(data))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"7.25"`), &a))
	assert.Equal(t, MustParse("7.25"), a)

	require.NoError(t, json.Unmarshal([]byte(`3`), &a))
	assert.Equal(t, 3*Unit, a)
}
