package amount

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Amount
	}{
		{name: "whole", in: "1", want: 10_000},
		{name: "one_fraction_digit", in: "1.5", want: 15_000},
		{name: "four_fraction_digits", in: "300.1234", want: 3_001_234},
		{name: "truncates_fifth_digit", in: "1.00009", want: 10_000},
		{name: "ignores_chars_past_precision", in: "2.0001xyz", want: 20_001},
		{name: "trailing_point", in: "7.", want: 70_000},
		{name: "surrounding_whitespace", in: "  42.42 ", want: 424_200},
		{name: "zero", in: "0", want: 0},
		{name: "leading_zeros", in: "007.0700", want: 70_700},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Parse(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "empty", in: "", want: ErrEmptyInput},
		{name: "blank", in: "   ", want: ErrEmptyInput},
		{name: "two_points", in: "1.2.3", want: ErrMultipleDecimalPoints},
		{name: "no_whole", in: ".234", want: ErrMissingWholePart},
		{name: "letter_in_whole", in: "1a.5", want: ErrInvalidDigit},
		{name: "letter_in_fraction", in: "1.5b", want: ErrInvalidDigit},
		{name: "minus_sign", in: "-1.5", want: ErrInvalidDigit},
		{name: "plus_sign", in: "+1", want: ErrInvalidDigit},
		{name: "too_large", in: "922337203685478", want: ErrOutOfRange},
		{name: "huge", in: "99999999999999999999999", want: ErrOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tc.in, err, tc.want)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Input != tc.in {
				t.Fatalf("ParseError.Input = %q, want %q", perr.Input, tc.in)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   Amount
		want string
	}{
		{in: 15_000, want: "1.5"},
		{in: 20_000, want: "2"},
		{in: 0, want: "0"},
		{in: 1, want: "0.0001"},
		{in: 3_001_234, want: "300.1234"},
		{in: -105_001, want: "-10.5001"},
		{in: -5_000, want: "-0.5"},
		{in: math.MinInt64, want: "-922337203685477.5808"},
		{in: math.MaxInt64, want: "922337203685477.5807"},
	}

	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Fatalf("Amount(%d).String() = %q, want %q", int64(tc.in), got, tc.want)
		}
	}
}

func TestRoundTripMatchesDecimal(t *testing.T) {
	inputs := []string{"0", "1", "1.5", "0.0001", "123.4567", "99999.9999", "10.0100"}
	for _, in := range inputs {
		a := MustParse(in)
		want := decimal.RequireFromString(in)
		if !a.Decimal().Equal(want) {
			t.Fatalf("Decimal(%q) = %s, want %s", in, a.Decimal(), want)
		}
		back := MustParse(a.String())
		if back != a {
			t.Fatalf("round trip %q: got %d want %d", in, back, a)
		}
	}
}

func TestArithmeticIsExact(t *testing.T) {
	a := MustParse("0.1")
	b := MustParse("0.2")
	if got := a.Add(b); got != MustParse("0.3") {
		t.Fatalf("0.1+0.2 = %s", got)
	}
	if got := a.Sub(b); got.String() != "-0.1" || !got.IsNegative() {
		t.Fatalf("0.1-0.2 = %s", got)
	}
	if got := a.Add(b).Sub(b); got != a {
		t.Fatalf("(a+b)-b = %s, want %s", got, a)
	}
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Fatalf("unexpected Cmp results")
	}
}

func TestTextMarshaling(t *testing.T) {
	var a Amount
	if err := a.UnmarshalText([]byte("-10.5001")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a != -105_001 {
		t.Fatalf("got %d", a)
	}
	text, err := a.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(text) != "-10.5001" {
		t.Fatalf("marshal = %s", text)
	}
}
