package offer

import (
	"errors"
	"fmt"

	"github.com/iwvelando/loan-wizard/pkg/constants"
	"github.com/iwvelando/loan-wizard/pkg/loans"
	"github.com/iwvelando/loan-wizard/pkg/mathutil"
)

// Bounds are the loan amount and term limits active for a set of assets.
type Bounds struct {
	MinAmount float64 `json:"minAmount"`
	MaxAmount float64 `json:"maxAmount"`
	MinTerm   int     `json:"minTerm"`
	MaxTerm   int     `json:"maxTerm"`
}

// ClampAmount limits amount to the bounds.
func (b Bounds) ClampAmount(amount float64) float64 {
	return mathutil.Clamp(amount, b.MinAmount, b.MaxAmount)
}

// ClampTerm limits a term in years to the bounds.
func (b Bounds) ClampTerm(years int) int {
	return mathutil.ClampInt(years, b.MinTerm, b.MaxTerm)
}

// Contains reports whether both amount and term are within the bounds.
func (b Bounds) Contains(amount float64, years int) bool {
	return amount >= b.MinAmount && amount <= b.MaxAmount && years >= b.MinTerm && years <= b.MaxTerm
}

// Catalog describes the product: one rate per collateral tier and the
// bounds unlocked by property collateral.
type Catalog struct {
	UnsecuredRate float64
	AutoRate      float64
	PropertyRate  float64

	MinDesiredPayment float64
	MaxDesiredPayment float64

	MinAmount         float64
	BaseMaxAmount     float64
	PropertyMaxAmount float64

	MinTerm         int
	BaseMaxTerm     int
	PropertyMaxTerm int
}

// DefaultCatalog returns the published cash-loan product.
func DefaultCatalog() Catalog {
	return Catalog{
		UnsecuredRate:     constants.UnsecuredAnnualRate,
		AutoRate:          constants.AutoSecuredAnnualRate,
		PropertyRate:      constants.PropertySecuredAnnualRate,
		MinDesiredPayment: constants.MinDesiredPayment,
		MaxDesiredPayment: constants.MaxDesiredPayment,
		MinAmount:         constants.MinLoanAmount,
		BaseMaxAmount:     constants.BaseMaxLoanAmount,
		PropertyMaxAmount: constants.PropertyMaxLoanAmount,
		MinTerm:           constants.MinTermYears,
		BaseMaxTerm:       constants.BaseMaxTermYears,
		PropertyMaxTerm:   constants.PropertyMaxTermYears,
	}
}

// Validate checks that every range is well formed.
func (c Catalog) Validate() error {
	var errs []error
	for _, col := range Collaterals {
		if rate := c.Rate(col); rate <= 0 || rate >= 10 {
			errs = append(errs, fmt.Errorf("%s rate must be a fraction in (0, 10), got %v", col, rate))
		}
	}
	if c.MinDesiredPayment <= 0 || c.MinDesiredPayment > c.MaxDesiredPayment {
		errs = append(errs, fmt.Errorf("invalid desired payment range [%v, %v]", c.MinDesiredPayment, c.MaxDesiredPayment))
	}
	if c.MinAmount <= 0 || c.MinAmount > c.BaseMaxAmount {
		errs = append(errs, fmt.Errorf("invalid amount range [%v, %v]", c.MinAmount, c.BaseMaxAmount))
	}
	if c.PropertyMaxAmount < c.BaseMaxAmount {
		errs = append(errs, fmt.Errorf("property max amount %v is below base max amount %v", c.PropertyMaxAmount, c.BaseMaxAmount))
	}
	if c.MinTerm < 1 || c.MinTerm > c.BaseMaxTerm {
		errs = append(errs, fmt.Errorf("invalid term range [%d, %d]", c.MinTerm, c.BaseMaxTerm))
	}
	if c.PropertyMaxTerm < c.BaseMaxTerm {
		errs = append(errs, fmt.Errorf("property max term %d is below base max term %d", c.PropertyMaxTerm, c.BaseMaxTerm))
	}
	return errors.Join(errs...)
}

// Rate returns the annual rate of a collateral tier.
func (c Catalog) Rate(col Collateral) float64 {
	switch col {
	case CollateralAuto:
		return c.AutoRate
	case CollateralProperty:
		return c.PropertyRate
	default:
		return c.UnsecuredRate
	}
}

// BoundsFor derives the active bounds. Property collateral raises both the
// amount and term ceilings; a car alone does not.
func (c Catalog) BoundsFor(assets Assets) Bounds {
	bounds := Bounds{
		MinAmount: c.MinAmount,
		MaxAmount: c.BaseMaxAmount,
		MinTerm:   c.MinTerm,
		MaxTerm:   c.BaseMaxTerm,
	}
	if assets.Property {
		bounds.MaxAmount = c.PropertyMaxAmount
		bounds.MaxTerm = c.PropertyMaxTerm
	}
	return bounds
}

// ClampDesiredPayment limits the monthly payment a visitor targets.
func (c Catalog) ClampDesiredPayment(amount float64) float64 {
	return mathutil.Clamp(amount, c.MinDesiredPayment, c.MaxDesiredPayment)
}

// Offer is one priced loan option.
type Offer struct {
	Collateral     Collateral `json:"collateral"`
	Label          string     `json:"label"`
	AnnualRate     float64    `json:"annualRate"`
	Amount         float64    `json:"amount"`
	TermYears      int        `json:"termYears"`
	MonthlyPayment float64    `json:"monthlyPayment"`
	Eligible       bool       `json:"eligible"`
}

// Quote prices a single tier without clamping. The payment is rounded to kopecks.
func (c Catalog) Quote(col Collateral, amount float64, termYears int) Offer {
	rate := c.Rate(col)
	return Offer{
		Collateral:     col,
		Label:          col.Label(),
		AnnualRate:     rate,
		Amount:         amount,
		TermYears:      termYears,
		MonthlyPayment: mathutil.Round(loans.MonthlyPayment(rate, termYears, amount)),
	}
}

// OfferSet groups offers the visitor qualifies for and the ones that would
// become available by pledging an undeclared asset.
type OfferSet struct {
	Bounds    Bounds  `json:"bounds"`
	Eligible  []Offer `json:"eligible"`
	Suggested []Offer `json:"suggested,omitempty"`
}

// Find returns the offer for a collateral from either section.
func (s OfferSet) Find(col Collateral) (Offer, bool) {
	for _, o := range s.Eligible {
		if o.Collateral == col {
			return o, true
		}
	}
	for _, o := range s.Suggested {
		if o.Collateral == col {
			return o, true
		}
	}
	return Offer{}, false
}

// Offers prices every tier for amount and termYears after clamping them into
// the bounds of assets. The unsecured offer always comes first.
func (c Catalog) Offers(assets Assets, amount float64, termYears int) OfferSet {
	bounds := c.BoundsFor(assets)
	amount = bounds.ClampAmount(amount)
	termYears = bounds.ClampTerm(termYears)

	set := OfferSet{Bounds: bounds}
	for _, col := range Collaterals {
		o := c.Quote(col, amount, termYears)
		o.Eligible = assets.Has(col)
		if o.Eligible {
			set.Eligible = append(set.Eligible, o)
		} else {
			set.Suggested = append(set.Suggested, o)
		}
	}
	return set
}
