// Package offer holds the collateral rate tiers, the loan bounds they unlock
// and the offers presented to a visitor.
package offer

import (
	"fmt"
	"strings"
)

// Collateral is the asset securing a loan.
type Collateral int

const (
	CollateralNone Collateral = iota
	CollateralAuto
	CollateralProperty
)

// Collaterals lists every tier in display order.
var Collaterals = []Collateral{CollateralNone, CollateralAuto, CollateralProperty}

func (c Collateral) String() string {
	switch c {
	case CollateralNone:
		return "none"
	case CollateralAuto:
		return "auto"
	case CollateralProperty:
		return "property"
	default:
		return fmt.Sprintf("collateral(%d)", int(c))
	}
}

// Label is the caption shown on offer cards.
func (c Collateral) Label() string {
	switch c {
	case CollateralAuto:
		return "Авто"
	case CollateralProperty:
		return "Недвижимость"
	default:
		return "Без залога"
	}
}

// AnalyticsOption is the chosen_option value reported with a lead.
func (c Collateral) AnalyticsOption() string {
	switch c {
	case CollateralAuto:
		return "auto"
	case CollateralProperty:
		return "property"
	default:
		return "nothing"
	}
}

// Valid reports whether c is one of the known tiers.
func (c Collateral) Valid() bool {
	return c >= CollateralNone && c <= CollateralProperty
}

// ParseCollateral accepts the String, AnalyticsOption or Label forms.
func ParseCollateral(value string) (Collateral, error) {
	trimmed := strings.TrimSpace(value)
	for _, c := range Collaterals {
		if strings.EqualFold(trimmed, c.String()) || strings.EqualFold(trimmed, c.AnalyticsOption()) || trimmed == c.Label() {
			return c, nil
		}
	}
	return CollateralNone, fmt.Errorf("unknown collateral %q", value)
}

// MarshalText implements encoding.TextMarshaler.
func (c Collateral) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown collateral %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Collateral) UnmarshalText(text []byte) error {
	parsed, err := ParseCollateral(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Assets are the collateral a visitor declares owning.
type Assets struct {
	Auto     bool `json:"auto"`
	Property bool `json:"property"`
}

// Has reports whether the visitor declared c. Every visitor can borrow unsecured.
func (a Assets) Has(c Collateral) bool {
	switch c {
	case CollateralAuto:
		return a.Auto
	case CollateralProperty:
		return a.Property
	default:
		return true
	}
}
