// Package money holds rounding, user input parsing and ru-RU formatting for
// the two units the wallet shows: rubles and USDT
package money

import (
	"math"    // Finite checks
	"regexp"  // Input normalization
	"strconv" // Float parsing
	"strings" // Decimal comma

	"github.com/shopspring/decimal" // Exact cent rounding
	"golang.org/x/text/language"    // ru-RU locale
	"golang.org/x/text/message"     // Localized printer
	"golang.org/x/text/number"      // Fraction digit control
)

// Currency is a display unit for amounts. Balances are always kept in RUB
type Currency string

const (
	RUB  Currency = "RUB"  // Russian ruble
	USDT Currency = "USDT" // Tether, shown at the current rate
)

// ParseCurrency maps user input to a Currency, defaulting to RUB
func ParseCurrency(s string) Currency {
	if strings.EqualFold(strings.TrimSpace(s), string(USDT)) {
		return USDT
	}
	return RUB
}

var nonAmountRe = regexp.MustCompile(`[^\d,.\-]`) // Everything but digits, separators and sign

var printer = message.NewPrinter(language.Russian) // Space-grouped thousands, comma decimals

// Round rounds v to two decimal places, half away from zero
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Add returns Round(a + b) computed in decimal
func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Sub returns Round(a - b) computed in decimal
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// ParseAmount normalizes a raw user string and returns a positive amount
// rounded to cents. ok is false for empty, unparseable, non-finite or
// non-positive input
func ParseAmount(raw string) (float64, bool) {
	normalized := nonAmountRe.ReplaceAllString(raw, "")
	normalized = strings.Replace(normalized, ",", ".", 1)
	if normalized == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	v = Round(v)
	if v <= 0 {
		return 0, false
	}
	return v, true
}

// ValidAmount reports whether v can be handed to the ledger
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// ToRub converts value expressed in c into rubles
func ToRub(value float64, c Currency, rate float64) float64 {
	if c == USDT {
		return Round(decimal.NewFromFloat(value).Mul(decimal.NewFromFloat(rate)).InexactFloat64())
	}
	return Round(value)
}

// FromRub converts a ruble amount into c
func FromRub(value float64, c Currency, rate float64) float64 {
	if c == USDT && rate > 0 {
		return Round(value / rate)
	}
	return Round(value)
}

// FormatRUB renders value as a ruble amount with exactly two fraction digits
func FormatRUB(value float64) string {
	return printer.Sprint(number.Decimal(value, number.Scale(2))) + " ₽"
}

// FormatUSDT renders a ruble amount converted to USDT at rate
func FormatUSDT(rub, rate float64) string {
	return printer.Sprint(number.Decimal(FromRub(rub, USDT, rate), number.Scale(2))) + " USDT"
}

// Format renders a ruble amount in the requested currency
func Format(rub float64, c Currency, rate float64) string {
	if c == USDT {
		return FormatUSDT(rub, rate)
	}
	return FormatRUB(rub)
}

// FormatNumber renders value with up to two fraction digits
func FormatNumber(value float64) string {
	return printer.Sprint(number.Decimal(value, number.MaxFractionDigits(2)))
}

// FormatPercent renders value followed by a percent sign
func FormatPercent(value float64) string {
	return FormatNumber(value) + "%"
}
