package amount

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Precision is the number of fractional decimal digits an Amount carries.
	Precision = 4
	// Scale is the number of minor units in one whole unit.
	Scale = 10_000
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only amount text.
	ErrEmptyInput = errors.New("empty amount")

	// ErrMultipleDecimalPoints is returned when the text has more than one '.'.
	ErrMultipleDecimalPoints = errors.New("multiple decimal points")

	// ErrMissingWholePart is returned when nothing precedes the decimal point.
	ErrMissingWholePart = errors.New("missing whole part")

	// ErrInvalidDigit is returned when a consumed character is not an ASCII digit.
	ErrInvalidDigit = errors.New("invalid digit")

	// ErrOutOfRange is returned when the scaled value does not fit in an int64.
	ErrOutOfRange = errors.New("amount out of range")
)

// ParseError records the text that failed to parse and why.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse amount %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Amount is a signed money value held as an integer count of 1/10000 units.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Parse converts decimal text such as "1", "1.5" or "300.12345" into an Amount.
// Fractional digits past the fourth are truncated without being inspected.
func Parse(text string) (Amount, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, &ParseError{Input: text, Err: ErrEmptyInput}
	}

	whole, frac, hasPoint := strings.Cut(s, ".")
	if hasPoint && strings.Contains(frac, ".") {
		return 0, &ParseError{Input: text, Err: ErrMultipleDecimalPoints}
	}
	if whole == "" {
		return 0, &ParseError{Input: text, Err: ErrMissingWholePart}
	}

	var units int64
	for i := 0; i < len(whole); i++ {
		d, ok := digit(whole[i])
		if !ok {
			return 0, &ParseError{Input: text, Err: ErrInvalidDigit}
		}
		if units > (math.MaxInt64-d)/10 {
			return 0, &ParseError{Input: text, Err: ErrOutOfRange}
		}
		units = units*10 + d
	}
	if units > math.MaxInt64/Scale {
		return 0, &ParseError{Input: text, Err: ErrOutOfRange}
	}
	units *= Scale

	var minor int64
	weight := int64(Scale / 10)
	for i := 0; i < len(frac) && i < Precision; i++ {
		d, ok := digit(frac[i])
		if !ok {
			return 0, &ParseError{Input: text, Err: ErrInvalidDigit}
		}
		minor += d * weight
		weight /= 10
	}
	if units > math.MaxInt64-minor {
		return 0, &ParseError{Input: text, Err: ErrOutOfRange}
	}

	return Amount(units + minor), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(text string) Amount {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

func digit(b byte) (int64, bool) {
	if b < '0' || b > '9' {
		return 0, false
	}
	return int64(b - '0'), true
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount { return a + b }

// Sub returns a-b. The result may be negative.
func (a Amount) Sub(b Amount) Amount { return a - b }

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or
// greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a < 0 }

// String renders a with up to four fractional digits and no trailing zeros,
// e.g. "1.5", "2" or "-10.5001".
func (a Amount) String() string {
	var b strings.Builder
	mag := uint64(a)
	if a < 0 {
		b.WriteByte('-')
		mag = uint64(-(a + 1)) + 1
	}

	b.WriteString(strconv.FormatUint(mag/Scale, 10))

	frac := mag % Scale
	if frac == 0 {
		return b.String()
	}

	digits := []byte(fmt.Sprintf("%0*d", Precision, frac))
	for len(digits) > 0 && digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
	}
	b.WriteByte('.')
	b.Write(digits)
	return b.String()
}

// Decimal returns the exact decimal value of a.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Precision)
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Negative values written
// by MarshalText are accepted.
func (a *Amount) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	neg := strings.HasPrefix(s, "-")
	v, err := Parse(strings.TrimPrefix(s, "-"))
	if err != nil {
		return err
	}
	if neg {
		v = -v
	}
	*a = v
	return nil
}
