package trailfee

import "github.com/Rhymond/go-money"

// defaultFraction applies to blank or unknown currency codes.
const defaultFraction = 2

// CurrencyFraction returns the number of minor-unit digits of an ISO 4217
// currency code, e.g. 2 for EUR and 0 for JPY.
func CurrencyFraction(code string) int {
	if cur := money.GetCurrency(normalizeCurrency(code)); cur != nil {
		return cur.Fraction
	}
	return defaultFraction
}
