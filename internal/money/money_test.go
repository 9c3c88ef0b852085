package money

import (
	"errors"
	"testing"

	"tally/internal/models"
)

func TestMultiplyByRate(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		rate  float64
		want  int64
	}{
		{name: "identity rate", cents: 1234, rate: 1, want: 1234},
		{name: "simple conversion", cents: 1000, rate: 1.1, want: 1100},
		{name: "halfway rounds to even down", cents: 25, rate: 0.5, want: 12},
		{name: "halfway rounds to even up", cents: 35, rate: 0.5, want: 18},
		{name: "zero amount", cents: 0, rate: 1.2345, want: 0},
		{name: "negative amount", cents: -1000, rate: 1.1, want: -1100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MultiplyByRate(tt.cents, tt.rate); got != tt.want {
				t.Errorf("MultiplyByRate(%d, %v) = %d, want %d", tt.cents, tt.rate, got, tt.want)
			}
		})
	}
}

func TestDecimalConversions(t *testing.T) {
	if got := DecimalToCents(19.99); got != 1999 {
		t.Errorf("DecimalToCents(19.99) = %d, want 1999", got)
	}
	if got := DecimalToCents(0.005); got != 1 {
		t.Errorf("DecimalToCents(0.005) = %d, want 1", got)
	}
	if got := CentsToDecimal(1999); got != 19.99 {
		t.Errorf("CentsToDecimal(1999) = %v, want 19.99", got)
	}
}

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "12.34", want: 1234},
		{in: "12,34", want: 1234},
		{in: "12", want: 1200},
		{in: ".50", want: 50},
		{in: "0", want: 0},
		{in: "12.345", want: 1235},
		{in: "12.346", want: 1235},
		{in: "", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "+5", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if got, err := Format(123456, FormatDollars); err != nil || got != "1234.56" {
		t.Errorf("Format dollars = %q, %v; want \"1234.56\"", got, err)
	}
	if got, err := Format(-50, FormatDollars); err != nil || got != "-0.50" {
		t.Errorf("Format negative dollars = %q, %v; want \"-0.50\"", got, err)
	}
	if got, err := Format(123456, FormatRawCents); err != nil || got != "123456" {
		t.Errorf("Format cents = %q, %v; want \"123456\"", got, err)
	}

	_, err := Format(100, "euros")
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Format with unknown format: error = %v, want ConfigurationError", err)
	}
}
