package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a monetary amount in integer cents. Amounts never pass through
// floating point: parsing, storage and threshold comparisons all stay on
// int64 cents.
type Money int64

// ParseMoney parses a decimal string such as "1000" or "3000.01" into cents.
// At most two fractional digits are accepted; negative amounts are rejected
// at the parse boundary.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("amount %q must be an unsigned decimal", s)
	}
	whole, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two fractional digits", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents64, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if units > (math.MaxInt64-cents64)/100 {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return Money(units*100 + cents64), nil
}

// MoneyFromCents wraps a raw cent value already stored as int64.
func MoneyFromCents(cents int64) Money {
	return Money(cents)
}

// Cents returns the raw cent value.
func (m Money) Cents() int64 {
	return int64(m)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m > 0
}

// String renders the amount as a decimal with two fractional digits.
func (m Money) String() string {
	cents := int64(m)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
