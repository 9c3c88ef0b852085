// Package money handles currency amounts as integer minor units (cents).
//
// All arithmetic downstream of the entry boundary operates on int64 cents to
// avoid floating-point drift; decimal values appear only when parsing input
// and formatting output.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"tally/internal/models"
)

// Output formats accepted by Format.
const (
	FormatDollars  = "dollars"
	FormatRawCents = "cents"
)

// CentsToDecimal converts integer cents to a decimal currency value.
// Used only at output boundaries; never feed the result back into arithmetic.
func CentsToDecimal(cents int64) float64 {
	return float64(cents) / 100
}

// DecimalToCents converts a decimal currency value to integer cents, rounding
// half away from zero. The same rounding is used everywhere a decimal enters
// the system.
func DecimalToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// MultiplyByRate converts cents by an exchange-rate multiplier, rounding half
// to even. Half-even avoids systematic bias when the conversion is applied
// across large transaction histories.
func MultiplyByRate(cents int64, rate float64) int64 {
	return int64(math.RoundToEven(float64(cents) * rate))
}

// Format renders cents in the requested output format: "dollars" for a
// two-decimal value, "cents" for the raw integer. Any other format is a
// ConfigurationError.
func Format(cents int64, format string) (string, error) {
	switch format {
	case FormatDollars:
		return fmt.Sprintf("%.2f", CentsToDecimal(cents)), nil
	case FormatRawCents:
		return strconv.FormatInt(cents, 10), nil
	default:
		return "", &models.ConfigurationError{
			Message: fmt.Sprintf("unknown money format %q (want %q or %q)", format, FormatDollars, FormatRawCents),
		}
	}
}

// ParseDecimalToCents converts a decimal string to cents with half-up rounding
// on the third decimal digit. Both dot and comma decimal separators are
// accepted. Negative amounts are rejected; amounts are paid amounts and the
// sign of a transaction comes from its type, not its contributions.
//
//	ParseDecimalToCents("12.34") -> 1234
//	ParseDecimalToCents("12,345") -> 1235 (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("signed amount %q not allowed", s)
	}

	intPart, fracPart, found := strings.Cut(s, ".")
	if found && strings.Contains(fracPart, ".") {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	// Guard the *100 below.
	if whole > math.MaxInt64/100 {
		return 0, fmt.Errorf("amount %q too large", s)
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return whole*100 + frac, nil
}
