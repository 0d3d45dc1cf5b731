package format

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

func invalid(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func decimal2(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Currency renders a BRL value, e.g. "R$ 1.234,56".
func Currency(v float64) string {
	if invalid(v) {
		return "R$ 0,00"
	}
	if v < 0 {
		return "-R$ " + decimal2(-v)
	}
	return "R$ " + decimal2(v)
}

// Percentage renders a ratio as a percentage: 0.1234 becomes "12,34%".
func Percentage(v float64) string {
	if invalid(v) {
		return "0%"
	}
	return printer.Sprint(number.Percent(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// InterestRate renders a yearly rate already expressed in percent.
func InterestRate(v float64) string {
	if invalid(v) {
		return "0,00%"
	}
	return decimal2(v) + "% a.a."
}

// Number renders v with up to two fraction digits.
func Number(v float64) string {
	if invalid(v) {
		return "0"
	}
	return printer.Sprint(number.Decimal(v, number.MinFractionDigits(0), number.MaxFractionDigits(2)))
}

// DisplayName keeps the first two space-separated words of a name.
func DisplayName(name string) string {
	if name == "" {
		return ""
	}
	words := strings.Split(strings.TrimSpace(name), " ")
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}
