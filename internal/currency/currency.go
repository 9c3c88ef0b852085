// Package currency holds the supported-currency table and the exchange-rate
// collaborator seam. Rate fetching itself lives outside the core; the core
// only consumes a multiplier.
package currency

import (
	"fmt"
	"sort"
	"strings"
)

// supported is the fixed table of currencies a transaction may use. All are
// decimal currencies with two minor units, which is what the integer-cents
// representation assumes.
var supported = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
	"GBP": "Pound Sterling",
	"CAD": "Canadian Dollar",
	"AUD": "Australian Dollar",
	"CHF": "Swiss Franc",
	"INR": "Indian Rupee",
	"BRL": "Brazilian Real",
}

// Supported reports whether code is a known currency code.
func Supported(code string) bool {
	_, ok := supported[strings.ToUpper(code)]
	return ok
}

// Codes returns the supported currency codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(supported))
	for c := range supported {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// RateProvider supplies the multiplier from one currency to another (units of
// `to` per unit of `from`). Implementations may hit the network; the core
// never does.
type RateProvider interface {
	Rate(from, to string) (float64, error)
}

// StaticRates is a RateProvider backed by a fixed table, keyed "FROM/TO".
// Same-currency lookups always return 1.
type StaticRates struct {
	rates map[string]float64
}

// NewStaticRates builds a StaticRates from a "FROM/TO" -> multiplier table.
// A nil table is valid and serves only same-currency lookups.
func NewStaticRates(rates map[string]float64) *StaticRates {
	normalized := make(map[string]float64, len(rates))
	for pair, rate := range rates {
		normalized[strings.ToUpper(pair)] = rate
	}
	return &StaticRates{rates: normalized}
}

// Rate implements RateProvider.
func (s *StaticRates) Rate(from, to string) (float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return 1, nil
	}
	if rate, ok := s.rates[from+"/"+to]; ok {
		return rate, nil
	}
	// Fall back to the inverse pair if only the opposite direction is known.
	if rate, ok := s.rates[to+"/"+from]; ok && rate != 0 {
		return 1 / rate, nil
	}
	return 0, fmt.Errorf("no exchange rate for %s/%s", from, to)
}
