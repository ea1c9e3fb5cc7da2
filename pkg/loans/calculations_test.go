package loans

import (
	"math"
	"testing"

	"github.com/iwvelando/loan-wizard/pkg/constants"
	"github.com/iwvelando/loan-wizard/pkg/mathutil"
)

func TestCalculatePeriodicPayment(t *testing.T) {
	tests := []struct {
		name            string
		annualRate      float64
		paymentsPerYear int
		totalPayments   int
		principal       float64
		expected        float64 // rounded to kopecks
	}{
		{
			name:            "Unsecured maximum over five years",
			annualRate:      constants.UnsecuredAnnualRate,
			paymentsPerYear: 12,
			totalPayments:   60,
			principal:       7_500_000,
			expected:        260918.55,
		},
		{
			name:            "Auto secured maximum over five years",
			annualRate:      constants.AutoSecuredAnnualRate,
			paymentsPerYear: 12,
			totalPayments:   60,
			principal:       7_500_000,
			expected:        229014.96,
		},
		{
			name:            "Property secured maximum over fifteen years",
			annualRate:      constants.PropertySecuredAnnualRate,
			paymentsPerYear: 12,
			totalPayments:   180,
			principal:       30_000_000,
			expected:        712853.57,
		},
		{
			name:            "Minimum loan over one year",
			annualRate:      constants.UnsecuredAnnualRate,
			paymentsPerYear: 12,
			totalPayments:   12,
			principal:       10_000,
			expected:        994.15,
		},
		{
			name:            "Zero interest loan",
			annualRate:      0,
			paymentsPerYear: 12,
			totalPayments:   60,
			principal:       12_000,
			expected:        200.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculatePeriodicPayment(tt.annualRate, tt.paymentsPerYear, tt.totalPayments, tt.principal)

			if mathutil.Round(result) != tt.expected {
				t.Errorf("CalculatePeriodicPayment() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestCalculatePeriodicPaymentNonPositiveTermPropagates(t *testing.T) {
	result := CalculatePeriodicPayment(constants.UnsecuredAnnualRate, 12, 0, 100_000)
	if !math.IsInf(result, 1) {
		t.Errorf("expected +Inf for zero payments, got %v", result)
	}
}

func TestMonthlyPaymentIncreasesWithPrincipal(t *testing.T) {
	rates := []float64{constants.UnsecuredAnnualRate, constants.AutoSecuredAnnualRate, constants.PropertySecuredAnnualRate}

	for _, rate := range rates {
		for term := 1; term <= 15; term++ {
			previous := MonthlyPayment(rate, term, 10_000)
			for principal := 110_000.0; principal <= 30_000_000; principal += 250_000 {
				current := MonthlyPayment(rate, term, principal)
				if current <= previous {
					t.Fatalf("rate %.4f term %d: payment did not increase at principal %.0f (%.2f <= %.2f)",
						rate, term, principal, current, previous)
				}
				previous = current
			}
		}
	}
}

func TestMonthlyPaymentDecreasesWithTerm(t *testing.T) {
	rates := []float64{constants.UnsecuredAnnualRate, constants.AutoSecuredAnnualRate, constants.PropertySecuredAnnualRate}
	principals := []float64{10_000, 500_000, 7_500_000, 30_000_000}

	for _, rate := range rates {
		for _, principal := range principals {
			previous := MonthlyPayment(rate, 1, principal)
			for term := 2; term <= 15; term++ {
				current := MonthlyPayment(rate, term, principal)
				if current >= previous {
					t.Fatalf("rate %.4f principal %.0f: payment did not decrease at term %d (%.2f >= %.2f)",
						rate, principal, term, current, previous)
				}
				previous = current
			}
		}
	}
}

func TestMonthlyPaymentMatchesPeriodicPayment(t *testing.T) {
	monthly := MonthlyPayment(constants.AutoSecuredAnnualRate, 3, 1_000_000)
	periodic := CalculatePeriodicPayment(constants.AutoSecuredAnnualRate, 12, 36, 1_000_000)

	if monthly != periodic {
		t.Errorf("MonthlyPayment() = %v, expected %v", monthly, periodic)
	}
	if mathutil.Round(monthly) != 40825.22 {
		t.Errorf("MonthlyPayment() = %.2f, expected 40825.22", monthly)
	}
}

func TestTotalRepaymentAndOverpayment(t *testing.T) {
	total := TotalRepayment(constants.UnsecuredAnnualRate, 5, 7_500_000)
	overpayment := Overpayment(constants.UnsecuredAnnualRate, 5, 7_500_000)

	if !mathutil.WithinTolerance(total, 260918.54535290098*60, 0.01) {
		t.Errorf("TotalRepayment() = %.2f", total)
	}
	if !mathutil.WithinTolerance(overpayment, total-7_500_000, constants.CurrencyTolerance) {
		t.Errorf("Overpayment() = %.2f, expected %.2f", overpayment, total-7_500_000)
	}
	if overpayment <= 0 {
		t.Errorf("expected positive overpayment, got %.2f", overpayment)
	}
}

func TestZeroRateHasNoOverpayment(t *testing.T) {
	if overpayment := Overpayment(0, 2, 24_000); !mathutil.IsZero(overpayment) {
		t.Errorf("Overpayment() = %.2f, expected 0", overpayment)
	}
}
