// Package format renders amounts and terms the way the wizard displays them.
package format

import (
	"fmt"
	"math"
	"strings"
)

// RubleSign is appended to every rouble amount.
const RubleSign = "₽"

// Rubles returns a whole-rouble amount with space thousands separators (e.g., "7 500 000 ₽").
func Rubles(amount float64) string {
	return Amount(amount) + " " + RubleSign
}

// RublesPerMonth returns a monthly amount (e.g., "260 919 ₽/мес").
func RublesPerMonth(amount float64) string {
	return Rubles(amount) + "/мес"
}

// Amount returns amount rounded to whole roubles with space thousands separators (e.g., "-1 234").
func Amount(amount float64) string {
	whole := math.Round(amount)
	sign := ""
	if whole < 0 {
		sign = "-"
	}
	return sign + groupThousands(fmt.Sprintf("%.0f", math.Abs(whole)))
}

func groupThousands(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}

	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(' ')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}

// Years returns the Russian noun for a number of years: год, года or лет.
func Years(n int) string {
	n = int(math.Abs(float64(n)))
	switch mod100 := n % 100; {
	case mod100 >= 11 && mod100 <= 14:
		return "лет"
	case n%10 == 1:
		return "год"
	case n%10 >= 2 && n%10 <= 4:
		return "года"
	default:
		return "лет"
	}
}

// YearsLabel returns a count with its noun (e.g., "3 года").
func YearsLabel(n int) string {
	return fmt.Sprintf("%d %s", n, Years(n))
}

// TermLabel returns the term caption shown on the term step (e.g., "На 5 лет").
func TermLabel(n int) string {
	return "На " + YearsLabel(n)
}
