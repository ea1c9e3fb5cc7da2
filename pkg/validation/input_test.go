package validation

import (
	"math"
	"strings"
	"testing"
)

func TestValidateLoanInput(t *testing.T) {
	tests := []struct {
		name      string
		amount    float64
		term      int
		expectErr bool
	}{
		{"Valid input", 1_000_000, 3, false},
		{"Below range still valid", 1, 1, false},
		{"Zero amount", 0, 3, true},
		{"Negative amount", -5, 3, true},
		{"NaN amount", math.NaN(), 3, true},
		{"Infinite amount", math.Inf(1), 3, true},
		{"Zero term", 1_000_000, 0, true},
		{"Negative term", 1_000_000, -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLoanInput(tt.amount, tt.term)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateLoanInput(%v, %d) expected error but got none", tt.amount, tt.term)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateLoanInput(%v, %d) unexpected error = %v", tt.amount, tt.term, err)
			}
		})
	}
}

func TestClampWarnings(t *testing.T) {
	r := LoanRange{MinAmount: 10_000, MaxAmount: 7_500_000, MinTerm: 1, MaxTerm: 5}

	tests := []struct {
		name     string
		amount   float64
		term     int
		contains []string
	}{
		{"In range", 1_000_000, 3, nil},
		{"Amount too low", 5_000, 3, []string{"below the minimum", "10 000 ₽"}},
		{"Amount too high", 9_000_000, 3, []string{"exceeds the maximum", "7 500 000 ₽"}},
		{"Term too long", 1_000_000, 10, []string{"Term 10 лет exceeds the maximum, using 5 лет"}},
		{"Both out of range", 20_000_000, 0, []string{"7 500 000 ₽", "using 1 год"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ClampWarnings(r, tt.amount, tt.term)
			if len(tt.contains) == 0 {
				if len(warnings) != 0 {
					t.Errorf("expected no warnings, got %v", warnings)
				}
				return
			}
			joined := strings.Join(warnings, "\n")
			for _, want := range tt.contains {
				if !strings.Contains(joined, want) {
					t.Errorf("expected warnings to contain %q, got %q", want, joined)
				}
			}
		})
	}
}
