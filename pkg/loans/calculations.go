// Package loans provides the annuity payment calculations used by every offer.
package loans

import (
	"math"

	"github.com/iwvelando/loan-wizard/pkg/constants"
)

// CalculatePeriodicPayment calculates the fixed periodic payment of an
// amortized loan using the standard annuity formula
//
//	payment = principal * r / (1 - (1+r)^-totalPayments),  r = annualRate / paymentsPerYear
//
// annualRate is a fraction (0.339 for 33.9%). No validation is done: callers
// keep totalPayments positive, and non-finite inputs propagate to the result.
func CalculatePeriodicPayment(annualRate float64, paymentsPerYear, totalPayments int, principal float64) float64 {
	periodRate := annualRate / float64(paymentsPerYear)
	if periodRate == 0 {
		// For zero interest, simply divide the principal by the payment count
		return principal / float64(totalPayments)
	}

	discountFactor := 1 - math.Pow(1+periodRate, -float64(totalPayments))
	return principal * periodRate / discountFactor
}

// MonthlyPayment calculates the monthly payment for a loan of principal over
// termYears at annualRate.
func MonthlyPayment(annualRate float64, termYears int, principal float64) float64 {
	return CalculatePeriodicPayment(annualRate, constants.MonthsPerYear, termYears*constants.MonthsPerYear, principal)
}

// TotalRepayment is the sum of all monthly payments over the term.
func TotalRepayment(annualRate float64, termYears int, principal float64) float64 {
	return MonthlyPayment(annualRate, termYears, principal) * float64(termYears*constants.MonthsPerYear)
}

// Overpayment is the total interest paid over the term.
func Overpayment(annualRate float64, termYears int, principal float64) float64 {
	return TotalRepayment(annualRate, termYears, principal) - principal
}
