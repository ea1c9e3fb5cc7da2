// Package output provides utilities for formatting and displaying loan offers.
package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/loan-wizard/internal/offer"
	"github.com/iwvelando/loan-wizard/pkg/format"
	"github.com/iwvelando/loan-wizard/pkg/loans"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, set offer.OfferSet) {
	p := message.NewPrinter(language.English)

	_, _ = fmt.Fprintf(w, "--- Limits: %s to %s, %s to %s ---\n",
		format.Rubles(set.Bounds.MinAmount), format.Rubles(set.Bounds.MaxAmount),
		format.YearsLabel(set.Bounds.MinTerm), format.YearsLabel(set.Bounds.MaxTerm))

	sections := []struct {
		title  string
		offers []offer.Offer
	}{
		{"Eligible offers", set.Eligible},
		{"May suit", set.Suggested},
	}
	for _, section := range sections {
		if len(section.offers) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n--- %s ---\n", section.title)
		_, _ = fmt.Fprintf(w, "Collateral   | Rate   | Amount        | Term | Monthly       | Overpayment\n")
		_, _ = fmt.Fprintf(w, "__________   | ____   | ______        | ____ | _______       | ___________\n")
		for _, o := range section.offers {
			_, _ = p.Fprintf(w, "%s | %.2f%% | %.2f | %d | %.2f | %.2f\n",
				o.Label, o.AnnualRate*100, o.Amount, o.TermYears, o.MonthlyPayment,
				loans.Overpayment(o.AnnualRate, o.TermYears, o.Amount))
		}
	}
}

// CsvFormat writes the offers in comma-separated value format.
func CsvFormat(w io.Writer, set offer.OfferSet) {
	_, _ = fmt.Fprintf(w, `"section","collateral","annual_rate","amount","term_years","monthly_payment","overpayment"`)
	_, _ = fmt.Fprintf(w, "\n")

	write := func(section string, offers []offer.Offer) {
		for _, o := range offers {
			_, _ = fmt.Fprintf(w, `"%s","%s","%.4f","%.2f","%d","%.2f","%.2f"`,
				section, o.Collateral, o.AnnualRate, o.Amount, o.TermYears, o.MonthlyPayment,
				loans.Overpayment(o.AnnualRate, o.TermYears, o.Amount))
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
	write("eligible", set.Eligible)
	write("suggested", set.Suggested)
}
