// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing prices from strings and
// converting between cents and their fixed-point decimal representation.
package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	cents, err := parseDecimal(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParsePrice parses user input into a positive Money value.
func ParsePrice(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// MoneyFromFloat rounds f half-up to the nearest cent.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}
	}
	// Go through the shortest decimal form so 1.005 rounds like its literal.
	cents, err := parseDecimal(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		return Money{Cents: int64(math.Round(f * 100))}
	}
	return Money{Cents: cents}
}

// parseDecimal converts a dot-separated decimal, optionally signed, to cents.
func parseDecimal(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	// Split into integer and fractional part
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64-1 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// Validate reports ErrInvalidAmount for zero or negative prices.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount with exactly two fractional digits (e.g. "3.50").
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := strconv.FormatInt(cents/100, 10)
	rem := cents % 100
	if rem < 10 {
		return sign + units + ".0" + strconv.FormatInt(rem, 10)
	}
	return sign + units + "." + strconv.FormatInt(rem, 10)
}

// Float returns the amount as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON encodes the amount as a plain JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts any JSON number and rounds it to cents.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	s := n.String()
	if strings.ContainsAny(s, "eE") {
		f, err := n.Float64()
		if err != nil {
			return err
		}
		*m = MoneyFromFloat(f)
		return nil
	}
	cents, err := parseDecimal(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
