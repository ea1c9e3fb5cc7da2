package validation

import (
	"fmt"
	"math"

	"github.com/iwvelando/loan-wizard/pkg/format"
)

// ValidateLoanInput rejects values that cannot be clamped into any range.
func ValidateLoanInput(amount float64, termYears int) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("loan amount must be a finite number, got %v", amount)
	}
	if amount <= 0 {
		return fmt.Errorf("loan amount must be positive, got %.2f", amount)
	}
	if termYears <= 0 {
		return fmt.Errorf("loan term must be at least one year, got %d", termYears)
	}
	return nil
}

// LoanRange is the subset of loan bounds checked by ClampWarnings.
type LoanRange struct {
	MinAmount float64
	MaxAmount float64
	MinTerm   int
	MaxTerm   int
}

// ClampWarnings describes how amount and termYears will be adjusted to fit r.
func ClampWarnings(r LoanRange, amount float64, termYears int) []string {
	var warnings []string

	switch {
	case amount < r.MinAmount:
		warnings = append(warnings, fmt.Sprintf("Amount %s is below the minimum, using %s",
			format.Rubles(amount), format.Rubles(r.MinAmount)))
	case amount > r.MaxAmount:
		warnings = append(warnings, fmt.Sprintf("Amount %s exceeds the maximum, using %s",
			format.Rubles(amount), format.Rubles(r.MaxAmount)))
	}

	switch {
	case termYears < r.MinTerm:
		warnings = append(warnings, fmt.Sprintf("Term %s is below the minimum, using %s",
			format.YearsLabel(termYears), format.YearsLabel(r.MinTerm)))
	case termYears > r.MaxTerm:
		warnings = append(warnings, fmt.Sprintf("Term %s exceeds the maximum, using %s",
			format.YearsLabel(termYears), format.YearsLabel(r.MaxTerm)))
	}

	return warnings
}
