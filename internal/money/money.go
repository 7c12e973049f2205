// Package money represents monetary amounts as integer minor units (cents).
//
// All ledger arithmetic happens on Cents so conservation invariants hold
// exactly; decimal strings appear only at the API boundary.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is a monetary amount in the currency's minor unit.
type Cents int64

// Tolerance is the maximum difference, in cents, at which two amounts are
// still considered equal. Matches one minor unit of rounding slack.
const Tolerance Cents = 1

// FromFloat converts a floating-point major-unit amount (e.g. 12.34) to Cents,
// rounding to the nearest cent.
func FromFloat(f float64) Cents {
	return Cents(math.Round(f * 100))
}

// Float returns the amount in major units as a float64. For presentation only.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String renders the amount as a decimal string with two fraction digits,
// e.g. "12.34" or "-0.05".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseAmount parses a decimal string like "12.34", "12" or "12.5" into Cents.
// More than two fraction digits is an error, not a silent rounding.
func ParseAmount(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	c := Cents(major*100 + minor)
	if neg {
		c = -c
	}
	return c, nil
}

// MarshalJSON renders the amount as a decimal string, e.g. "12.34".
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

// UnmarshalJSON accepts a decimal string with up to two fraction digits.
func (c *Cents) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("amount must be a decimal string, got %s", b)
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Equal reports whether a and b are equal within Tolerance.
func Equal(a, b Cents) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= Tolerance
}

// IsZero reports whether c is zero within Tolerance.
func IsZero(c Cents) bool {
	return Equal(c, 0)
}

// Min returns the smaller of a and b.
func Min(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}
