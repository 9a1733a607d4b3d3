package amount

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits an Amount carries
const Scale = 4

// Unit is the scaled value of 1.0000
const Unit Amount = 10000

// ErrInvalidAmount is returned for literals that cannot be represented exactly
var ErrInvalidAmount = errors.New("invalid amount")

// maxLiteralLen bounds the digits handed to decimal; int64 needs at most 19 plus 4 fractional
const maxLiteralLen = 64

// Plain decimal literals only: no exponent, no thousands separators
var literal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

var (
	maxScaled = decimal.NewFromInt(math.MaxInt64)
	minScaled = decimal.NewFromInt(math.MinInt64)
)

// Amount is a fixed-point decimal stored in ten-thousandths
// Example: 1.5 is stored as 15000
type Amount int64

// Zero is the zero amount
const Zero Amount = 0

// Parse converts a decimal literal into an Amount
// Surrounding whitespace is ignored. Literals that would lose precision at
// four fractional digits are rejected rather than rounded ("1.00005" fails,
// "1.50000" is accepted as 1.5).
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty literal", ErrInvalidAmount)
	}
	if len(s) > maxLiteralLen {
		return Zero, fmt.Errorf("%w: literal longer than %d characters", ErrInvalidAmount, maxLiteralLen)
	}
	// decimal accepts exponents up to MaxInt32, and rescaling those never finishes
	if !literal.MatchString(s) {
		return Zero, fmt.Errorf("%w: %q is not a plain decimal", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q is not a decimal", ErrInvalidAmount, s)
	}

	scaled := d.Shift(Scale)
	if !scaled.IsInteger() {
		return Zero, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, s, Scale)
	}
	if scaled.GreaterThan(maxScaled) || scaled.LessThan(minScaled) {
		return Zero, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}

	return Amount(scaled.IntPart()), nil
}

// ParsePositive parses s and requires the result to be greater than zero
func ParsePositive(s string) (Amount, error) {
	a, err := Parse(s)
	if err != nil {
		return Zero, err
	}
	if !a.IsPositive() {
		return Zero, fmt.Errorf("%w: %q must be positive", ErrInvalidAmount, strings.TrimSpace(s))
	}
	return a, nil
}

// MustParse is Parse for literals known to be valid (tests, constants)
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b
func (a Amount) Add(b Amount) Amount { return a + b }

// Sub returns a - b
func (a Amount) Sub(b Amount) Amount { return a - b }

// CheckedAdd returns a + b and false if the sum overflows int64
func (a Amount) CheckedAdd(b Amount) (Amount, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return Zero, false
	}
	return sum, true
}

func (a Amount) GreaterOrEqual(b Amount) bool { return a >= b }
func (a Amount) Equal(b Amount) bool          { return a == b }
func (a Amount) IsZero() bool                 { return a == 0 }
func (a Amount) IsPositive() bool             { return a > 0 }
func (a Amount) IsNegative() bool             { return a < 0 }

// Decimal returns the exact decimal value
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats with exactly four fractional digits ("1.5000")
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// MarshalJSON encodes the amount as a quoted decimal string
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal or a bare JSON number
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
